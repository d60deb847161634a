package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingExec(id, skillID string) *domain.SkillExecution {
	return &domain.SkillExecution{
		ID:        id,
		SkillID:   skillID,
		Status:    domain.StatusPending,
		StartedAt: time.Now(),
	}
}

func TestApproveReleasesWaiter(t *testing.T) {
	g := New()
	exec := pendingExec("e1", "delete_file")

	done := make(chan Decision, 1)
	go func() {
		d, err := g.Wait(context.Background(), exec)
		require.NoError(t, err)
		done <- d
	}()

	// Wait until the ticket is visible.
	require.Eventually(t, func() bool {
		return len(g.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, g.Approve("e1"))

	select {
	case d := <-done:
		assert.Equal(t, DecisionApproved, d)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}

	assert.Empty(t, g.Pending())
}

func TestDenyReleasesWaiter(t *testing.T) {
	g := New()
	exec := pendingExec("e1", "write_file")

	done := make(chan Decision, 1)
	go func() {
		d, err := g.Wait(context.Background(), exec)
		require.NoError(t, err)
		done <- d
	}()

	require.Eventually(t, func() bool {
		return len(g.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, g.Deny("e1"))
	assert.Equal(t, DecisionDenied, <-done)
}

func TestDecideUnknownExecution(t *testing.T) {
	g := New()
	assert.ErrorIs(t, g.Approve("nope"), domain.ErrExecutionNotFound)
	assert.ErrorIs(t, g.Deny("nope"), domain.ErrExecutionNotFound)
}

func TestDecideTwice(t *testing.T) {
	g := New()
	exec := pendingExec("e1", "delete_file")

	go func() {
		_, _ = g.Wait(context.Background(), exec)
	}()

	require.Eventually(t, func() bool {
		return len(g.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, g.Approve("e1"))
	assert.ErrorIs(t, g.Approve("e1"), domain.ErrAlreadyDecided)
	assert.ErrorIs(t, g.Deny("e1"), domain.ErrAlreadyDecided)
}

func TestIndependentWaits(t *testing.T) {
	// Deciding one execution must not release another.
	g := New()

	results := make(map[string]Decision)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			d, err := g.Wait(context.Background(), pendingExec(id, "delete_file"))
			require.NoError(t, err)
			mu.Lock()
			results[id] = d
			mu.Unlock()
		}(id)
	}

	require.Eventually(t, func() bool {
		return len(g.Pending()) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, g.Deny("b"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, DecisionDenied, results["b"])
	mu.Unlock()
	assert.Len(t, g.Pending(), 2)

	require.NoError(t, g.Approve("a"))
	require.NoError(t, g.Approve("c"))
	wg.Wait()

	assert.Equal(t, DecisionApproved, results["a"])
	assert.Equal(t, DecisionApproved, results["c"])
}

func TestWaitTimeout(t *testing.T) {
	g := New(WithTimeout(20 * time.Millisecond))

	d, err := g.Wait(context.Background(), pendingExec("e1", "delete_file"))
	require.NoError(t, err)
	assert.Equal(t, DecisionTimedOut, d)

	// After timing out the id is resolved, not unknown.
	assert.ErrorIs(t, g.Approve("e1"), domain.ErrAlreadyDecided)
}

func TestWaitContextCanceled(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := g.Wait(ctx, pendingExec("e1", "delete_file"))
		errc <- err
	}()

	require.Eventually(t, func() bool {
		return len(g.Pending()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Empty(t, g.Pending())
}

func TestNotifierInvokedOnSuspension(t *testing.T) {
	notified := make(chan string, 1)
	g := New(WithNotifier(ports.NotifierFunc(
		func(ctx context.Context, exec *domain.SkillExecution) error {
			notified <- exec.ID
			return nil
		})))

	go func() {
		_, _ = g.Wait(context.Background(), pendingExec("e1", "write_file"))
	}()

	select {
	case id := <-notified:
		assert.Equal(t, "e1", id)
	case <-time.After(time.Second):
		t.Fatal("notifier was not invoked")
	}

	require.NoError(t, g.Deny("e1"))
}

func TestPendingOrderedOldestFirst(t *testing.T) {
	g := New()

	older := pendingExec("old", "delete_file")
	older.StartedAt = time.Now().Add(-time.Minute)
	newer := pendingExec("new", "delete_file")

	go func() { _, _ = g.Wait(context.Background(), newer) }()
	go func() { _, _ = g.Wait(context.Background(), older) }()

	require.Eventually(t, func() bool {
		return len(g.Pending()) == 2
	}, time.Second, 5*time.Millisecond)

	pending := g.Pending()
	assert.Equal(t, "old", pending[0].ID)
	assert.Equal(t, "new", pending[1].ID)

	require.NoError(t, g.Approve("old"))
	require.NoError(t, g.Approve("new"))
}
