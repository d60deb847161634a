package skillgate

import (
	"context"
	"log/slog"
	"time"

	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/adapters/memory"
	"github.com/skillgate/skillgate/pkg/approval"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/executor"
	"github.com/skillgate/skillgate/pkg/observability"
	"github.com/skillgate/skillgate/pkg/pipeline"
	"github.com/skillgate/skillgate/pkg/ports"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/skillgate/skillgate/pkg/workflow"
)

// Version is the library version reported by the CLI and servers.
var Version = "0.3.0"

// Engine is the high-level entry point for the Skillgate library. It wires
// the skill registry, approval gate, execution pipeline and workflow engine
// behind one API, with in-memory stores and the built-in action executor by
// default. Every collaborator can be swapped via options.
type Engine struct {
	registry  *registry.Registry
	gate      *approval.Gate
	exec      *executor.Executor
	pipeline  *pipeline.Pipeline
	workflows *workflow.Engine
	watcher   *observability.Watcher

	runner          ports.ActionRunner
	notifier        ports.Notifier
	auditStore      ports.AuditStore
	workflowStore   ports.WorkflowStore
	hooks           []domain.LifecycleHooks
	approvalTimeout time.Duration
	workDir         string
	logger          *slog.Logger
	registerBuiltin bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithNotifier sets the notifier that surfaces pending approvals.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithAuditStore injects a custom audit store (e.g. the redis or file
// adapter), replacing the default in-memory one.
func WithAuditStore(s ports.AuditStore) Option {
	return func(e *Engine) { e.auditStore = s }
}

// WithWorkflowStore injects a custom workflow store.
func WithWorkflowStore(s ports.WorkflowStore) Option {
	return func(e *Engine) { e.workflowStore = s }
}

// WithActionRunner replaces the built-in action executor entirely.
func WithActionRunner(r ports.ActionRunner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, hooks) }
}

// WithApprovalTimeout bounds how long an execution may wait for a decision.
// Zero (the default) waits indefinitely. A timed-out wait is a denial.
func WithApprovalTimeout(d time.Duration) Option {
	return func(e *Engine) { e.approvalTimeout = d }
}

// WithWorkDir anchors relative paths in file skill parameters.
func WithWorkDir(dir string) Option {
	return func(e *Engine) { e.workDir = dir }
}

// WithoutBuiltins skips registration of the built-in skills, for hosts that
// supply their own full skill set.
func WithoutBuiltins() Option {
	return func(e *Engine) { e.registerBuiltin = false }
}

// New initializes a Skillgate Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{registerBuiltin: true}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.auditStore == nil {
		eng.auditStore = memory.NewAuditStore()
	}
	if eng.workflowStore == nil {
		eng.workflowStore = memory.NewWorkflowStore()
	}

	eng.registry = registry.New()

	var execOpts []executor.Option
	if eng.workDir != "" {
		execOpts = append(execOpts, executor.WithWorkDir(eng.workDir))
	}
	execOpts = append(execOpts, executor.WithLogger(eng.logger))
	eng.exec = executor.New(execOpts...)
	if eng.runner == nil {
		eng.runner = eng.exec
	}

	gateOpts := []approval.Option{approval.WithLogger(eng.logger)}
	if eng.notifier != nil {
		gateOpts = append(gateOpts, approval.WithNotifier(eng.notifier))
	}
	if eng.approvalTimeout > 0 {
		gateOpts = append(gateOpts, approval.WithTimeout(eng.approvalTimeout))
	}
	eng.gate = approval.New(gateOpts...)

	eng.watcher = observability.NewWatcher()
	eng.hooks = append(eng.hooks, eng.watcher.Hooks())

	pipeOpts := []pipeline.Option{pipeline.WithLogger(eng.logger)}
	for _, h := range eng.hooks {
		pipeOpts = append(pipeOpts, pipeline.WithHooks(h))
	}
	eng.pipeline = pipeline.New(eng.registry, eng.gate, eng.runner, eng.auditStore, pipeOpts...)

	eng.workflows = workflow.New(eng.registry, eng.pipeline, eng.workflowStore,
		workflow.WithLogger(eng.logger))

	if eng.registerBuiltin {
		for _, def := range executor.Builtins() {
			if err := eng.registry.Register(def); err != nil {
				return nil, err
			}
		}
	}

	return eng, nil
}

// RegisterSkill validates and registers a skill definition. Reserved
// sensitive skills keep their approval requirement regardless of the flag
// in the definition.
func (e *Engine) RegisterSkill(def domain.SkillDefinition) error {
	return e.registry.Register(def)
}

// RegisterSkillFunc registers a skill definition together with its handler
// on the built-in executor.
func (e *Engine) RegisterSkillFunc(def domain.SkillDefinition, fn executor.Handler) error {
	if err := e.registry.Register(def); err != nil {
		return err
	}
	e.exec.Register(def.ID, fn)
	return nil
}

// Skills returns all registered skill definitions.
func (e *Engine) Skills() []domain.SkillDefinition {
	return e.registry.List()
}

// Execute runs a skill synchronously. Sensitive skills block until a
// decision arrives via Approve, Deny or the configured timeout.
func (e *Engine) Execute(ctx context.Context, skillID string, params map[string]any) (*domain.SkillExecution, error) {
	return e.pipeline.Execute(ctx, skillID, params)
}

// Submit runs a skill asynchronously, returning an execution id to poll.
func (e *Engine) Submit(ctx context.Context, skillID string, params map[string]any) (string, error) {
	return e.pipeline.Submit(ctx, skillID, params)
}

// Execution returns the current state of an execution.
func (e *Engine) Execution(executionID string) (*domain.SkillExecution, error) {
	return e.pipeline.Get(executionID)
}

// Approve releases a pending execution.
func (e *Engine) Approve(executionID string) error {
	return e.pipeline.Approve(executionID)
}

// Deny rejects a pending execution; the action is never performed.
func (e *Engine) Deny(executionID string) error {
	return e.pipeline.Deny(executionID)
}

// Pending lists executions awaiting approval, oldest first.
func (e *Engine) Pending() []*domain.SkillExecution {
	return e.pipeline.Pending()
}

// History returns the audit trail, optionally filtered by skill id.
func (e *Engine) History(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	return e.pipeline.History(ctx, skillID)
}

// SaveWorkflow persists a workflow document.
func (e *Engine) SaveWorkflow(ctx context.Context, wf domain.Workflow) error {
	return e.workflows.Save(ctx, wf)
}

// ValidateWorkflow checks a workflow graph without executing it.
func (e *Engine) ValidateWorkflow(wf domain.Workflow) error {
	return e.workflows.Validate(wf)
}

// RunWorkflow validates and executes a workflow document directly.
func (e *Engine) RunWorkflow(ctx context.Context, wf domain.Workflow, inputs map[string]any) (*domain.WorkflowResult, error) {
	return e.workflows.Run(ctx, wf, inputs)
}

// ExecuteWorkflow loads a stored workflow by id and runs it.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string, inputs map[string]any) (*domain.WorkflowResult, error) {
	return e.workflows.Execute(ctx, workflowID, inputs)
}

// Stats returns a snapshot of engine activity: execution counts by skill
// and the current approval backlog.
func (e *Engine) Stats() observability.Snapshot {
	return e.watcher.Snapshot()
}

// WatchActivity streams an activity snapshot after every lifecycle event
// until ctx is done.
func (e *Engine) WatchActivity(ctx context.Context) <-chan observability.Snapshot {
	return e.watcher.Watch(ctx)
}

// Registry exposes the underlying skill registry for adapters.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Pipeline exposes the underlying execution pipeline for adapters.
func (e *Engine) Pipeline() *pipeline.Pipeline { return e.pipeline }

// Workflows exposes the underlying workflow engine for adapters.
func (e *Engine) Workflows() *workflow.Engine { return e.workflows }
