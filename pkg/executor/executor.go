// Package executor implements the sandboxed action executor for the
// built-in skills, plus a registry for custom skill handlers.
//
// "Sandboxed" here means logical gating only: output capture, timeouts and
// explicit error classification. There is no OS-level isolation; safety
// comes from the registry/approval layers deciding which skills may run.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/domain"
)

// DefaultCommandTimeout bounds run_terminal_command when no explicit
// timeout is configured.
const DefaultCommandTimeout = 30 * time.Second

// Handler implements one skill's concrete action.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Executor runs concrete skill actions. It satisfies ports.ActionRunner.
type Executor struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	workDir        string
	commandTimeout time.Duration
	logger         *slog.Logger
}

// Option configures the executor.
type Option func(*Executor)

// WithWorkDir sets the default working directory for terminal commands and
// the base for relative file paths.
func WithWorkDir(dir string) Option {
	return func(e *Executor) { e.workDir = dir }
}

// WithCommandTimeout overrides the terminal command timeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(e *Executor) { e.commandTimeout = d }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor with the four built-in skills registered.
func New(opts ...Option) *Executor {
	e := &Executor{
		handlers:       make(map[string]Handler),
		commandTimeout: DefaultCommandTimeout,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers[domain.SkillRunTerminalCommand] = e.runTerminalCommand
	e.handlers[domain.SkillReadFile] = e.readFile
	e.handlers[domain.SkillWriteFile] = e.writeFile
	e.handlers[domain.SkillDeleteFile] = e.deleteFile

	return e
}

// Register adds a custom skill handler. An existing handler for the same id
// is overwritten.
func (e *Executor) Register(skillID string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[skillID] = h
}

// Run executes the action for skillID with validated parameters.
func (e *Executor) Run(ctx context.Context, skillID string, params map[string]any) (any, error) {
	e.mu.RLock()
	h, ok := e.handlers[skillID]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no action handler for skill %s: %w", skillID, domain.ErrSkillNotFound)
	}

	start := time.Now()
	result, err := h(ctx, params)
	e.logger.DebugContext(ctx, "action executed",
		"skill_id", skillID,
		"duration", time.Since(start),
		"is_error", err != nil)
	return result, err
}

// stringParam extracts an optional string parameter. The pipeline validates
// types before dispatch, so a wrong type here indicates a caller bypassing
// validation and is reported as such.
func stringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s: expected string, got %T", name, v)
	}
	return s, nil
}
