package tui

import (
	"bytes"
	"context"
	"testing"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyNonTTY(t *testing.T) {
	var buf bytes.Buffer
	n := NewApprovalNotifierTo(&buf)

	err := n.Notify(context.Background(), &domain.SkillExecution{
		ID:         "exec-1",
		SkillID:    domain.SkillDeleteFile,
		SkillName:  "Delete File",
		Parameters: map[string]any{"path": "/tmp/x"},
		Status:     domain.StatusPending,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "approval required")
	assert.Contains(t, out, "exec-1")
	assert.Contains(t, out, "delete_file")
	assert.Contains(t, out, `"path":"/tmp/x"`)
}

func TestNotifyNoParams(t *testing.T) {
	var buf bytes.Buffer
	n := NewApprovalNotifierTo(&buf)

	err := n.Notify(context.Background(), &domain.SkillExecution{
		ID:      "exec-2",
		SkillID: "custom",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "params={}")
}

func TestBuildMarkdownListsParameters(t *testing.T) {
	n := &ApprovalNotifier{}
	md := n.buildMarkdown(&domain.SkillExecution{
		ID:        "exec-3",
		SkillID:   domain.SkillRunTerminalCommand,
		SkillName: "Run Terminal Command",
		Parameters: map[string]any{
			"command": "rm -rf /tmp/scratch",
			"timeout": 30,
		},
	})

	assert.Contains(t, md, "Run Terminal Command")
	assert.Contains(t, md, "rm -rf /tmp/scratch")
	assert.Contains(t, md, "skillgate approve exec-3")
	assert.Contains(t, md, "skillgate deny exec-3")
}
