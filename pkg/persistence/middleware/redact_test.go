package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/skillgate/skillgate/pkg/adapters/memory"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(params map[string]any) domain.AuditEntry {
	return domain.AuditEntry{
		ExecutionID: "exec-1",
		SkillID:     "deploy_service",
		Parameters:  params,
		Status:      domain.StatusCompleted,
		StartedAt:   time.Now().UTC(),
		EndedAt:     time.Now().UTC(),
	}
}

func TestRedactionMasksMatchingKeys(t *testing.T) {
	ctx := context.Background()
	store := Chain(memory.NewAuditStore(), NewRedactionMiddleware([]string{"(?i)password", "(?i)token"}))

	err := store.Append(ctx, sampleEntry(map[string]any{
		"environment": "staging",
		"Password":    "hunter2",
		"auth_token":  "tok-123",
	}))
	require.NoError(t, err)

	entries, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	params := entries[0].Parameters
	assert.Equal(t, "staging", params["environment"])
	assert.Equal(t, "***", params["Password"])
	assert.Equal(t, "***", params["auth_token"])
}

func TestRedactionRecursesIntoNestedMaps(t *testing.T) {
	ctx := context.Background()
	store := Chain(memory.NewAuditStore(), NewRedactionMiddleware([]string{"secret"}))

	err := store.Append(ctx, sampleEntry(map[string]any{
		"config": map[string]any{
			"secret_key": "abc",
			"region":     "eu-west-1",
		},
	}))
	require.NoError(t, err)

	entries, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	nested, ok := entries[0].Parameters["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", nested["secret_key"])
	assert.Equal(t, "eu-west-1", nested["region"])
}

func TestRedactionDoesNotMutateCallerMap(t *testing.T) {
	ctx := context.Background()
	store := Chain(memory.NewAuditStore(), NewRedactionMiddleware([]string{"password"}))

	params := map[string]any{
		"password": "hunter2",
		"nested":   map[string]any{"password": "hunter3"},
	}
	require.NoError(t, store.Append(ctx, sampleEntry(params)))

	assert.Equal(t, "hunter2", params["password"])
	assert.Equal(t, "hunter3", params["nested"].(map[string]any)["password"])
}
