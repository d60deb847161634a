// Package approval implements the human-in-the-loop approval gate.
//
// Each sensitive execution is held as an explicit suspended ticket keyed by
// execution id. The executing task blocks in Wait until an external
// Approve/Deny message resolves that specific id; other pending approvals
// and unrelated executions are unaffected.
package approval

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
)

// Decision is the outcome of one approval wait.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"

	// DecisionTimedOut is produced when a configured wait timeout elapses.
	// The pipeline treats it as a denial; the distinct value keeps the
	// audit trail honest about why.
	DecisionTimedOut Decision = "timed_out"
)

type ticket struct {
	exec    *domain.SkillExecution
	decided chan Decision
}

// Gate suspends executions awaiting a human decision.
//
// State machine per execution: Pending -> {Approved | Denied}. Decisions on
// unknown ids fail with domain.ErrExecutionNotFound; decisions on already
// resolved ids fail with domain.ErrAlreadyDecided.
type Gate struct {
	mu       sync.Mutex
	pending  map[string]*ticket
	resolved map[string]Decision

	timeout  time.Duration
	notifier ports.Notifier
	logger   *slog.Logger
}

// Option configures the gate.
type Option func(*Gate)

// WithTimeout bounds each approval wait. Zero (the default) waits forever;
// when set, an expired wait resolves as DecisionTimedOut.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithNotifier surfaces newly pending executions to the operator.
func WithNotifier(n ports.Notifier) Option {
	return func(g *Gate) { g.notifier = n }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New creates a gate with no pending executions.
func New(opts ...Option) *Gate {
	g := &Gate{
		pending:  make(map[string]*ticket),
		resolved: make(map[string]Decision),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait suspends until the execution is approved, denied, times out, or the
// context is canceled. The execution snapshot is what operators see via
// Pending and the notifier; Wait does not mutate it.
func (g *Gate) Wait(ctx context.Context, exec *domain.SkillExecution) (Decision, error) {
	tk := &ticket{
		exec:    exec.Clone(),
		decided: make(chan Decision, 1),
	}

	g.mu.Lock()
	g.pending[exec.ID] = tk
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "execution pending approval",
		"execution_id", exec.ID, "skill_id", exec.SkillID)

	if g.notifier != nil {
		// Notification failures must not fail the execution.
		if err := g.notifier.Notify(ctx, tk.exec); err != nil {
			g.logger.WarnContext(ctx, "approval notification failed",
				"execution_id", exec.ID, "err", err)
		}
	}

	var timeoutC <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case decision := <-tk.decided:
		return decision, nil

	case <-timeoutC:
		if g.resolve(exec.ID, DecisionTimedOut) {
			g.logger.WarnContext(ctx, "approval wait timed out",
				"execution_id", exec.ID, "timeout", g.timeout)
			return DecisionTimedOut, nil
		}
		// A decision raced the timer; honor it.
		return <-tk.decided, nil

	case <-ctx.Done():
		if g.resolve(exec.ID, DecisionDenied) {
			return "", ctx.Err()
		}
		return <-tk.decided, nil
	}
}

// Approve resolves a pending execution as approved, releasing its task.
func (g *Gate) Approve(executionID string) error {
	return g.decide(executionID, DecisionApproved)
}

// Deny resolves a pending execution as denied. The suspended task records a
// Failed outcome and never reaches the action executor.
func (g *Gate) Deny(executionID string) error {
	return g.decide(executionID, DecisionDenied)
}

func (g *Gate) decide(executionID string, decision Decision) error {
	g.mu.Lock()
	tk, ok := g.pending[executionID]
	if !ok {
		_, wasResolved := g.resolved[executionID]
		g.mu.Unlock()
		if wasResolved {
			return domain.ErrAlreadyDecided
		}
		return domain.ErrExecutionNotFound
	}
	delete(g.pending, executionID)
	g.resolved[executionID] = decision
	g.mu.Unlock()

	tk.decided <- decision
	g.logger.Info("execution decided",
		"execution_id", executionID, "decision", string(decision))
	return nil
}

// resolve marks an execution resolved without an external decision (timeout
// or cancellation). Returns false if a decision already won the race.
func (g *Gate) resolve(executionID string, decision Decision) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.pending[executionID]; !ok {
		return false
	}
	delete(g.pending, executionID)
	g.resolved[executionID] = decision
	return true
}

// Pending returns a snapshot of executions awaiting a decision, oldest first.
func (g *Gate) Pending() []*domain.SkillExecution {
	g.mu.Lock()
	defer g.mu.Unlock()

	execs := make([]*domain.SkillExecution, 0, len(g.pending))
	for _, tk := range g.pending {
		execs = append(execs, tk.exec.Clone())
	}
	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartedAt.Before(execs[j].StartedAt)
	})
	return execs
}
