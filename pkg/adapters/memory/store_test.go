package memory

import (
	"testing"

	"github.com/skillgate/skillgate/pkg/ports"
)

func TestAuditStoreContract(t *testing.T) {
	ports.RunAuditStoreContract(t, NewAuditStore())
}

func TestWorkflowStoreContract(t *testing.T) {
	ports.RunWorkflowStoreContract(t, NewWorkflowStore())
}
