package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skillgate/skillgate/pkg/adapters/memory"
	"github.com/skillgate/skillgate/pkg/approval"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/executor"
	"github.com/skillgate/skillgate/pkg/ports"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner counts invocations so tests can prove the action
// executor is never reached before approval.
type recordingRunner struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (r *recordingRunner) Run(ctx context.Context, skillID string, params map[string]any) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, skillID)
	r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	return "ok:" + skillID, nil
}

func (r *recordingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fixture struct {
	registry *registry.Registry
	gate     *approval.Gate
	runner   *recordingRunner
	audit    *memory.AuditStore
	pipeline *Pipeline
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		registry: registry.New(),
		gate:     approval.New(),
		runner:   &recordingRunner{},
		audit:    memory.NewAuditStore(),
	}

	require.NoError(t, f.registry.Register(domain.SkillDefinition{
		ID:   "list_files",
		Name: "List Files",
		Parameters: []domain.SkillParameter{
			{Name: "dir", Type: domain.ParamPath},
		},
	}))
	require.NoError(t, f.registry.Register(domain.SkillDefinition{
		ID:   domain.SkillDeleteFile,
		Name: "Delete File",
		Parameters: []domain.SkillParameter{
			{Name: "path", Type: domain.ParamPath, Required: true},
		},
	}))

	f.pipeline = New(f.registry, f.gate, f.runner, f.audit, opts...)
	return f
}

func TestExecuteNonSensitiveRunsImmediately(t *testing.T) {
	f := newFixture(t)

	exec, err := f.pipeline.Execute(context.Background(), "list_files", map[string]any{"dir": "/tmp"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, exec.Status)
	assert.Equal(t, "ok:list_files", exec.Result)
	assert.Equal(t, 1, f.runner.callCount())
	assert.False(t, exec.EndedAt.IsZero())
}

func TestExecuteSkillNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Execute(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, domain.ErrSkillNotFound)

	// No execution id was minted, so nothing reaches the audit log.
	entries, lerr := f.audit.List(context.Background(), "")
	require.NoError(t, lerr)
	assert.Empty(t, entries)
}

func TestExecuteParameterInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Execute(context.Background(), "delete_file", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrParameterInvalid)

	entries, lerr := f.audit.List(context.Background(), "")
	require.NoError(t, lerr)
	assert.Empty(t, entries)
	assert.Zero(t, f.runner.callCount())
}

func TestSensitiveSkillGatedUntilApproval(t *testing.T) {
	f := newFixture(t)

	execID, err := f.pipeline.Submit(context.Background(), "delete_file", map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.pipeline.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	// Gate is the only thing between the request and the side effect.
	assert.Zero(t, f.runner.callCount(), "runner must not be invoked before approval")

	exec, err := f.pipeline.Get(execID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, exec.Status)

	require.NoError(t, f.pipeline.Approve(execID))

	require.Eventually(t, func() bool {
		exec, err := f.pipeline.Get(execID)
		return err == nil && exec.Status.Terminal()
	}, time.Second, 5*time.Millisecond)

	exec, err = f.pipeline.Get(execID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, exec.Status)
	assert.Equal(t, 1, f.runner.callCount())
}

func TestDenialNeverReachesRunner(t *testing.T) {
	f := newFixture(t)

	execID, err := f.pipeline.Submit(context.Background(), "delete_file", map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.pipeline.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.pipeline.Deny(execID))

	require.Eventually(t, func() bool {
		exec, err := f.pipeline.Get(execID)
		return err == nil && exec.Status.Terminal()
	}, time.Second, 5*time.Millisecond)

	exec, err := f.pipeline.Get(execID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, exec.Status)
	assert.Contains(t, exec.Error, "approval denied")
	assert.Zero(t, f.runner.callCount())
}

func TestDenialLeavesFileUntouched(t *testing.T) {
	// End-to-end flavor of the denial guarantee, with the real executor.
	dir := t.TempDir()
	target := filepath.Join(dir, "precious.txt")
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0644))

	reg := registry.New()
	require.NoError(t, reg.Register(domain.SkillDefinition{
		ID:   domain.SkillDeleteFile,
		Name: "Delete File",
		Parameters: []domain.SkillParameter{
			{Name: "path", Type: domain.ParamPath, Required: true},
		},
	}))

	gate := approval.New()
	p := New(reg, gate, executor.New(), memory.NewAuditStore())

	execID, err := p.Submit(context.Background(), domain.SkillDeleteFile, map[string]any{"path": target})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(p.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Deny(execID))

	require.Eventually(t, func() bool {
		exec, err := p.Get(execID)
		return err == nil && exec.Status.Terminal()
	}, time.Second, 5*time.Millisecond)

	data, err := os.ReadFile(target)
	require.NoError(t, err, "denied delete_file must leave the target on disk")
	assert.Equal(t, "keep me", string(data))
}

func TestApprovalRemovesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doomed.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	reg := registry.New()
	require.NoError(t, reg.Register(domain.SkillDefinition{
		ID:   domain.SkillDeleteFile,
		Name: "Delete File",
		Parameters: []domain.SkillParameter{
			{Name: "path", Type: domain.ParamPath, Required: true},
		},
	}))

	p := New(reg, approval.New(), executor.New(), memory.NewAuditStore())

	execID, err := p.Submit(context.Background(), domain.SkillDeleteFile, map[string]any{"path": target})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(p.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Approve(execID))

	require.Eventually(t, func() bool {
		exec, err := p.Get(execID)
		return err == nil && exec.Status == domain.StatusCompleted
	}, time.Second, 5*time.Millisecond)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAuditCompleteness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Completed
	exec1, err := f.pipeline.Execute(ctx, "list_files", nil)
	require.NoError(t, err)

	// Failed (runner error)
	f.runner.fail = fmt.Errorf("disk on fire")
	exec2, err := f.pipeline.Execute(ctx, "list_files", nil)
	require.NoError(t, err)
	f.runner.fail = nil

	// Denied
	execID3, err := f.pipeline.Submit(ctx, "delete_file", map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(f.pipeline.Pending()) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, f.pipeline.Deny(execID3))
	require.Eventually(t, func() bool {
		exec, err := f.pipeline.Get(execID3)
		return err == nil && exec.Status.Terminal()
	}, time.Second, 5*time.Millisecond)

	entries, err := f.pipeline.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3, "every minted execution gets exactly one terminal entry")

	byID := map[string]domain.AuditEntry{}
	for _, e := range entries {
		byID[e.ExecutionID] = e
	}
	assert.Equal(t, domain.StatusCompleted, byID[exec1.ID].Status)
	assert.Equal(t, domain.StatusFailed, byID[exec2.ID].Status)
	assert.Contains(t, byID[exec2.ID].Error, "disk on fire")
	assert.Equal(t, domain.StatusFailed, byID[execID3].Status)
	assert.Contains(t, byID[execID3].Error, "approval denied")
}

func TestHistoryFiltersBySkill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Execute(ctx, "list_files", nil)
	require.NoError(t, err)

	entries, err := f.pipeline.History(ctx, "list_files")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = f.pipeline.History(ctx, "delete_file")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApproveUnknownAndDecided(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.pipeline.Approve("ghost"), domain.ErrExecutionNotFound)

	// A terminal, never-pending execution reports AlreadyDecided.
	exec, err := f.pipeline.Execute(context.Background(), "list_files", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, f.pipeline.Approve(exec.ID), domain.ErrAlreadyDecided)
	assert.ErrorIs(t, f.pipeline.Deny(exec.ID), domain.ErrAlreadyDecided)
}

func TestApprovalTimeoutFailsExecution(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(domain.SkillDefinition{
		ID:   domain.SkillDeleteFile,
		Name: "Delete File",
	}))

	gate := approval.New(approval.WithTimeout(20 * time.Millisecond))
	runner := &recordingRunner{}
	p := New(reg, gate, runner, memory.NewAuditStore())

	exec, err := p.Execute(context.Background(), domain.SkillDeleteFile, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, exec.Status)
	assert.Contains(t, exec.Error, "timed out")
	assert.Zero(t, runner.callCount())
}

func TestConcurrentIndependentExecutions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := f.pipeline.Submit(ctx, "delete_file", map[string]any{"path": "/tmp/x"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Eventually(t, func() bool {
		return len(f.pipeline.Pending()) == 5
	}, time.Second, 5*time.Millisecond)

	// Deny one; the others stay pending.
	require.NoError(t, f.pipeline.Deny(ids[2]))
	require.Eventually(t, func() bool {
		exec, err := f.pipeline.Get(ids[2])
		return err == nil && exec.Status.Terminal()
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, f.pipeline.Pending(), 4)

	for i, id := range ids {
		if i == 2 {
			continue
		}
		require.NoError(t, f.pipeline.Approve(id))
	}

	require.Eventually(t, func() bool {
		entries, err := f.pipeline.History(ctx, "")
		return err == nil && len(entries) == 5
	}, time.Second, 5*time.Millisecond)
}

func TestHooksFireInOrder(t *testing.T) {
	var mu sync.Mutex
	var events []domain.EventType

	hook := domain.LifecycleHooks{
		OnSubmitted: func(ctx context.Context, e *domain.ExecutionEvent) {
			mu.Lock()
			events = append(events, domain.EventSubmitted)
			mu.Unlock()
		},
		OnPending: func(ctx context.Context, e *domain.ExecutionEvent) {
			mu.Lock()
			events = append(events, domain.EventPending)
			mu.Unlock()
		},
		OnDecision: func(ctx context.Context, e *domain.ExecutionEvent) {
			mu.Lock()
			events = append(events, domain.EventDecision)
			mu.Unlock()
		},
		OnTerminal: func(ctx context.Context, e *domain.ExecutionEvent) {
			mu.Lock()
			events = append(events, domain.EventTerminal)
			mu.Unlock()
		},
	}

	f := newFixture(t, WithHooks(hook))
	ctx := context.Background()

	execID, err := f.pipeline.Submit(ctx, "delete_file", map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(f.pipeline.Pending()) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, f.pipeline.Approve(execID))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 4
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventSubmitted,
		domain.EventPending,
		domain.EventDecision,
		domain.EventTerminal,
	}, events)
}

var _ ports.ActionRunner = (*recordingRunner)(nil)
