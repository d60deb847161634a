// Package pipeline orchestrates one skill call end to end:
// resolve -> validate -> classify -> gate -> execute -> record.
//
// Side effects are strictly deferred until after approval: nothing is
// dispatched to the action runner while an execution is pending, and a
// denied execution never reaches it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/approval"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/skillgate/skillgate/pkg/schema"
)

// Pipeline drives skill executions through the approval state machine.
// Each Execute/Submit call is an independent task; the only suspension
// point is the approval gate wait.
type Pipeline struct {
	registry *registry.Registry
	gate     *approval.Gate
	runner   ports.ActionRunner
	audit    ports.AuditStore

	hooks  []domain.LifecycleHooks
	logger *slog.Logger

	mu         sync.RWMutex
	executions map[string]*domain.SkillExecution
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithHooks registers lifecycle hooks. May be given multiple times;
// hooks fire in registration order.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(p *Pipeline) { p.hooks = append(p.hooks, h) }
}

// New creates a pipeline over the given collaborators.
func New(reg *registry.Registry, gate *approval.Gate, runner ports.ActionRunner, audit ports.AuditStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:   reg,
		gate:       gate,
		runner:     runner,
		audit:      audit,
		logger:     logging.NewNop(),
		executions: make(map[string]*domain.SkillExecution),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs one skill call synchronously, returning the terminal
// execution record. SkillNotFound and ParameterInvalid fail before an
// execution id is minted and therefore never reach the audit log; every
// later outcome, including denial and executor failure, is captured inside
// the returned record rather than as an error.
func (p *Pipeline) Execute(ctx context.Context, skillID string, params map[string]any) (*domain.SkillExecution, error) {
	def, exec, err := p.admit(ctx, skillID, params)
	if err != nil {
		return nil, err
	}
	p.run(ctx, def, exec)
	return p.snapshot(exec.ID), nil
}

// Submit runs one skill call asynchronously and returns its execution id
// for fire-and-poll callers. The execution outlives the submitting
// context: cancellation of an HTTP request must not abandon an approval
// already surfaced to the operator.
func (p *Pipeline) Submit(ctx context.Context, skillID string, params map[string]any) (string, error) {
	def, exec, err := p.admit(ctx, skillID, params)
	if err != nil {
		return "", err
	}

	go p.run(context.WithoutCancel(ctx), def, exec)
	return exec.ID, nil
}

// admit performs the synchronous, side-effect-free phase: resolve the
// definition, validate parameters, mint the execution record.
func (p *Pipeline) admit(ctx context.Context, skillID string, params map[string]any) (domain.SkillDefinition, *domain.SkillExecution, error) {
	def, err := p.registry.Lookup(skillID)
	if err != nil {
		return domain.SkillDefinition{}, nil, err
	}

	if err := schema.Validate(def, params); err != nil {
		return domain.SkillDefinition{}, nil, err
	}

	exec := &domain.SkillExecution{
		ID:         uuid.NewString(),
		SkillID:    def.ID,
		SkillName:  def.Name,
		Parameters: params,
		Status:     domain.StatusApproved,
		StartedAt:  time.Now().UTC(),
	}
	if def.IsSensitive {
		exec.Status = domain.StatusPending
	}

	p.mu.Lock()
	p.executions[exec.ID] = exec
	p.mu.Unlock()

	p.fire(ctx, domain.EventSubmitted, exec, nil)
	return def, exec, nil
}

// run drives an admitted execution to its terminal state.
func (p *Pipeline) run(ctx context.Context, def domain.SkillDefinition, exec *domain.SkillExecution) {
	if def.IsSensitive {
		p.fire(ctx, domain.EventPending, exec, nil)

		decision, err := p.gate.Wait(ctx, exec)
		if err != nil {
			p.finalize(ctx, exec, nil, fmt.Errorf("approval wait aborted: %w", err))
			return
		}

		switch decision {
		case approval.DecisionApproved:
			p.setStatus(exec, domain.StatusApproved)
			p.fireDecision(ctx, exec, domain.StatusApproved)

		case approval.DecisionDenied:
			p.fireDecision(ctx, exec, domain.StatusDenied)
			p.finalize(ctx, exec, nil, domain.ErrApprovalDenied)
			return

		case approval.DecisionTimedOut:
			p.fireDecision(ctx, exec, domain.StatusDenied)
			p.finalize(ctx, exec, nil, fmt.Errorf("%w: approval wait timed out", domain.ErrApprovalDenied))
			return
		}
	}

	result, err := p.runner.Run(ctx, exec.SkillID, exec.Parameters)
	p.finalize(ctx, exec, result, err)
}

// finalize records the terminal state and appends the audit entry.
// Exactly one terminal entry is written per admitted execution.
func (p *Pipeline) finalize(ctx context.Context, exec *domain.SkillExecution, result any, runErr error) {
	p.mu.Lock()
	exec.EndedAt = time.Now().UTC()
	if runErr != nil {
		exec.Status = domain.StatusFailed
		exec.Error = runErr.Error()
	} else {
		exec.Status = domain.StatusCompleted
		exec.Result = result
	}
	entry := domain.NewAuditEntry(exec)
	p.mu.Unlock()

	if err := p.audit.Append(ctx, entry); err != nil {
		// The outcome is still held in the execution table; losing the
		// durable record is a loud error, not a silent drop.
		p.logger.ErrorContext(ctx, "audit append failed",
			"execution_id", exec.ID, "skill_id", exec.SkillID, "err", err)
	}

	p.logger.InfoContext(ctx, "execution finished",
		"execution_id", exec.ID,
		"skill_id", exec.SkillID,
		"status", string(entry.Status),
		"err", exec.Error)

	p.fire(ctx, domain.EventTerminal, exec, nil)
}

// Approve releases a pending execution to proceed.
func (p *Pipeline) Approve(executionID string) error {
	return p.mapDecisionErr(executionID, p.gate.Approve(executionID))
}

// Deny rejects a pending execution. The action runner is never invoked.
func (p *Pipeline) Deny(executionID string) error {
	return p.mapDecisionErr(executionID, p.gate.Deny(executionID))
}

// mapDecisionErr distinguishes "unknown id" from "exists but not pending":
// a terminal execution the gate never saw (non-sensitive, or long decided)
// reports AlreadyDecided rather than NotFound.
func (p *Pipeline) mapDecisionErr(executionID string, err error) error {
	if !errors.Is(err, domain.ErrExecutionNotFound) {
		return err
	}
	p.mu.RLock()
	_, known := p.executions[executionID]
	p.mu.RUnlock()
	if known {
		return domain.ErrAlreadyDecided
	}
	return err
}

// Get returns a snapshot of an execution, in-flight or terminal.
func (p *Pipeline) Get(executionID string) (*domain.SkillExecution, error) {
	exec := p.snapshot(executionID)
	if exec == nil {
		return nil, domain.ErrExecutionNotFound
	}
	return exec, nil
}

// Pending lists executions awaiting approval, oldest first.
func (p *Pipeline) Pending() []*domain.SkillExecution {
	return p.gate.Pending()
}

// History returns the audit trail, optionally filtered by skill id.
func (p *Pipeline) History(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	return p.audit.List(ctx, skillID)
}

func (p *Pipeline) snapshot(executionID string) *domain.SkillExecution {
	p.mu.RLock()
	defer p.mu.RUnlock()
	exec, ok := p.executions[executionID]
	if !ok {
		return nil
	}
	return exec.Clone()
}

func (p *Pipeline) setStatus(exec *domain.SkillExecution, status domain.ExecutionStatus) {
	p.mu.Lock()
	exec.Status = status
	p.mu.Unlock()
}

func (p *Pipeline) fire(ctx context.Context, typ domain.EventType, exec *domain.SkillExecution, _ error) {
	event := &domain.ExecutionEvent{
		Timestamp:   time.Now().UTC(),
		Type:        typ,
		ExecutionID: exec.ID,
		SkillID:     exec.SkillID,
		Status:      exec.Status,
		IsError:     exec.Error != "",
	}
	for _, h := range p.hooks {
		switch typ {
		case domain.EventSubmitted:
			if h.OnSubmitted != nil {
				h.OnSubmitted(ctx, event)
			}
		case domain.EventPending:
			if h.OnPending != nil {
				h.OnPending(ctx, event)
			}
		case domain.EventTerminal:
			if h.OnTerminal != nil {
				h.OnTerminal(ctx, event)
			}
		}
	}
}

func (p *Pipeline) fireDecision(ctx context.Context, exec *domain.SkillExecution, status domain.ExecutionStatus) {
	event := &domain.ExecutionEvent{
		Timestamp:   time.Now().UTC(),
		Type:        domain.EventDecision,
		ExecutionID: exec.ID,
		SkillID:     exec.SkillID,
		Status:      status,
	}
	for _, h := range p.hooks {
		if h.OnDecision != nil {
			h.OnDecision(ctx, event)
		}
	}
}
