package domain

import "time"

// ExecutionStatus defines the state machine of a skill execution.
//
// Transitions: Pending -> {Approved | Denied}, Approved -> {Completed | Failed}.
// Non-sensitive executions skip Pending and go straight to a terminal state.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusApproved  ExecutionStatus = "approved"
	StatusDenied    ExecutionStatus = "denied"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status is a sink state.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SkillExecution is one invocation attempt of a skill. The pipeline is the
// sole mutator while in flight; once terminal it is read-only history.
type SkillExecution struct {
	ID         string          `json:"id" mapstructure:"id"`
	SkillID    string          `json:"skill_id" mapstructure:"skill_id"`
	SkillName  string          `json:"skill_name,omitempty" mapstructure:"skill_name"`
	Parameters map[string]any  `json:"parameters,omitempty" mapstructure:"parameters"`
	Status     ExecutionStatus `json:"status" mapstructure:"status"`
	Result     any             `json:"result,omitempty" mapstructure:"result"`
	Error      string          `json:"error,omitempty" mapstructure:"error"`
	StartedAt  time.Time       `json:"started_at" mapstructure:"started_at"`
	EndedAt    time.Time       `json:"ended_at,omitzero" mapstructure:"ended_at"`
}

// Clone returns a copy with its own parameter map, so callers cannot
// mutate in-flight state through a shared reference.
func (e *SkillExecution) Clone() *SkillExecution {
	cp := *e
	if e.Parameters != nil {
		cp.Parameters = make(map[string]any, len(e.Parameters))
		for k, v := range e.Parameters {
			cp.Parameters[k] = v
		}
	}
	return &cp
}

// TerminalOutput is the captured result of a terminal command execution.
type TerminalOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}
