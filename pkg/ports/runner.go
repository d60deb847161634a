package ports

import (
	"context"
)

// ActionRunner executes one concrete skill action. The pipeline calls it
// only after validation and, for sensitive skills, after approval.
//
// The returned value is the skill's result (e.g. domain.TerminalOutput for
// run_terminal_command, file contents for read_file). Errors should wrap the
// domain sentinels (ErrCommandTimedOut, ErrSpawnFailed, ErrPathNotFound,
// ErrPermissionDenied, ErrIO) so the pipeline can classify the failure.
type ActionRunner interface {
	Run(ctx context.Context, skillID string, params map[string]any) (any, error)
}

// ActionFunc adapts a plain function to the ActionRunner interface.
type ActionFunc func(ctx context.Context, skillID string, params map[string]any) (any, error)

func (f ActionFunc) Run(ctx context.Context, skillID string, params map[string]any) (any, error) {
	return f(ctx, skillID, params)
}
