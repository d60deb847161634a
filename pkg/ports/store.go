package ports

import (
	"context"

	"github.com/skillgate/skillgate/pkg/domain"
)

// AuditStore persists terminal execution records. Entries are append-only:
// implementations must never mutate or delete a stored entry, and each
// Append must be atomic with respect to concurrent readers.
type AuditStore interface {
	// Append stores one terminal entry.
	Append(ctx context.Context, entry domain.AuditEntry) error

	// List returns entries in append order. A non-empty skillID filters to
	// that skill. The result is a snapshot; later appends do not affect it.
	List(ctx context.Context, skillID string) ([]domain.AuditEntry, error)
}

// WorkflowStore persists workflow documents. A stored workflow may be
// cyclic; graph validation happens at execution time, not on save.
type WorkflowStore interface {
	// Save persists the workflow, replacing any existing one with the same id.
	Save(ctx context.Context, wf domain.Workflow) error

	// Load retrieves a workflow by id.
	// Returns domain.ErrWorkflowNotFound if it does not exist.
	Load(ctx context.Context, id string) (domain.Workflow, error)

	// Delete removes a workflow by id.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored workflows.
	List(ctx context.Context) ([]string, error)
}
