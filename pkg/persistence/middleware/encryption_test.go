package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/skillgate/skillgate/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptionRoundtrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewAuditStore()
	store := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))

	entry := sampleEntry(map[string]any{"path": "/etc/hosts"})
	entry.Result = "ok"
	entry.Error = ""
	require.NoError(t, store.Append(ctx, entry))

	// At rest, only the envelope is visible.
	raw, err := inner.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Contains(t, raw[0].Parameters, "__encrypted__")
	assert.NotContains(t, raw[0].Parameters, "path")
	assert.Nil(t, raw[0].Result)
	assert.Equal(t, entry.ExecutionID, raw[0].ExecutionID)
	assert.Equal(t, entry.Status, raw[0].Status)

	// Through the middleware, the entry decrypts to the original.
	entries, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/etc/hosts", entries[0].Parameters["path"])
	assert.Equal(t, "ok", entries[0].Result)
}

func TestEncryptionFilterBySkillStaysInClear(t *testing.T) {
	ctx := context.Background()
	store := Chain(memory.NewAuditStore(), NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))

	a := sampleEntry(map[string]any{"x": 1})
	a.ExecutionID = "e1"
	b := sampleEntry(map[string]any{"y": 2})
	b.ExecutionID = "e2"
	b.SkillID = "read_file"

	require.NoError(t, store.Append(ctx, a))
	require.NoError(t, store.Append(ctx, b))

	entries, err := store.List(ctx, "read_file")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e2", entries[0].ExecutionID)
}

func TestEncryptionKeyRotation(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewAuditStore()

	oldStore := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	require.NoError(t, oldStore.Append(ctx, sampleEntry(map[string]any{"path": "/tmp/a"})))

	// New active key, old key kept as fallback.
	newStore := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{
		ActiveKey:    testKey(2),
		FallbackKeys: [][]byte{testKey(1)},
	}))

	entries, err := newStore.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/tmp/a", entries[0].Parameters["path"])
}

func TestEncryptionWrongKeyFails(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewAuditStore()

	writer := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	require.NoError(t, writer.Append(ctx, sampleEntry(map[string]any{"x": 1})))

	reader := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(9)}))
	_, err := reader.List(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEncryptionRejectsPlainEntries(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewAuditStore()
	require.NoError(t, inner.Append(ctx, sampleEntry(map[string]any{"x": 1})))

	store := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	_, err := store.List(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestEncryptionRequires32ByteKey(t *testing.T) {
	assert.Panics(t, func() {
		NewEncryptionMiddleware(EncryptionConfig{ActiveKey: []byte("short")})
	})
}
