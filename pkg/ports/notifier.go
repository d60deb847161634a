package ports

import (
	"context"

	"github.com/skillgate/skillgate/pkg/domain"
)

// Notifier surfaces a pending execution to the human operator. The transport
// (terminal prompt, desktop notification, chat message) is adapter-specific;
// the gate only guarantees that Notify fires once per suspension, before the
// wait begins. A Notify failure must not fail the execution.
type Notifier interface {
	Notify(ctx context.Context, exec *domain.SkillExecution) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, exec *domain.SkillExecution) error

func (f NotifierFunc) Notify(ctx context.Context, exec *domain.SkillExecution) error {
	return f(ctx, exec)
}
