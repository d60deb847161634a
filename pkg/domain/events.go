package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventPending   EventType = "pending"
	EventDecision  EventType = "decision"
	EventTerminal  EventType = "terminal"
)

// ExecutionEvent describes one step in an execution's lifecycle.
type ExecutionEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	ExecutionID string          `json:"execution_id"`
	SkillID     string          `json:"skill_id"`
	Status      ExecutionStatus `json:"status"`
	IsError     bool            `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for pipeline observability. All hooks are
// optional and invoked synchronously from the executing task.
type LifecycleHooks struct {
	OnSubmitted func(context.Context, *ExecutionEvent)
	OnPending   func(context.Context, *ExecutionEvent)
	OnDecision  func(context.Context, *ExecutionEvent)
	OnTerminal  func(context.Context, *ExecutionEvent)
}
