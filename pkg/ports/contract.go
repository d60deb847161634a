package ports

import (
	"context"
	"testing"
	"time"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAuditStoreContract runs a suite of tests to verify that an AuditStore
// implementation adheres to the defined interface contract.
func RunAuditStoreContract(t *testing.T, store AuditStore) {
	ctx := context.Background()

	entry := func(execID, skillID string, status domain.ExecutionStatus) domain.AuditEntry {
		return domain.AuditEntry{
			ExecutionID: execID,
			SkillID:     skillID,
			Status:      status,
			Parameters:  map[string]any{"path": "/tmp/x"},
			StartedAt:   time.Now().UTC().Truncate(time.Second),
			EndedAt:     time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Append and List", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, entry("e1", "write_file", domain.StatusCompleted)))
		require.NoError(t, store.Append(ctx, entry("e2", "read_file", domain.StatusFailed)))

		entries, err := store.List(ctx, "")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(entries), 2)

		// Append order is preserved.
		var ids []string
		for _, e := range entries {
			ids = append(ids, e.ExecutionID)
		}
		assert.Contains(t, ids, "e1")
		assert.Contains(t, ids, "e2")
		assert.Less(t, indexOf(ids, "e1"), indexOf(ids, "e2"))
	})

	t.Run("List filters by skill", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, entry("e3", "delete_file", domain.StatusDenied)))

		entries, err := store.List(ctx, "delete_file")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		for _, e := range entries {
			assert.Equal(t, "delete_file", e.SkillID)
		}
	})

	t.Run("List is a snapshot", func(t *testing.T) {
		before, err := store.List(ctx, "")
		require.NoError(t, err)

		require.NoError(t, store.Append(ctx, entry("e4", "read_file", domain.StatusCompleted)))

		after, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1)
	})

	t.Run("Unknown skill yields empty", func(t *testing.T) {
		entries, err := store.List(ctx, "no-such-skill")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// RunWorkflowStoreContract runs a suite of tests to verify that a
// WorkflowStore implementation adheres to the defined interface contract.
func RunWorkflowStoreContract(t *testing.T, store WorkflowStore) {
	ctx := context.Background()

	wf := domain.Workflow{
		ID:   "contract-wf",
		Name: "Contract Workflow",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "read_file", Params: map[string]any{"path": "/tmp/in"}},
			{ID: "b", SkillID: "write_file"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "a-b", Source: "a", Target: "b", TargetParam: "content"},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, wf))

		loaded, err := store.Load(ctx, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, wf.Name, loaded.Name)
		require.Len(t, loaded.Nodes, 2)
		assert.Equal(t, "read_file", loaded.Nodes[0].SkillID)
		require.Len(t, loaded.Edges, 1)
		assert.Equal(t, "content", loaded.Edges[0].TargetParam)
	})

	t.Run("Save replaces", func(t *testing.T) {
		updated := wf
		updated.Name = "Renamed"
		require.NoError(t, store.Save(ctx, updated))

		loaded, err := store.Load(ctx, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent")
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, wf.ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, wf.ID))
		_, err := store.Load(ctx, wf.ID)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
