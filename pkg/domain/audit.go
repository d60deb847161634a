package domain

import "time"

// AuditEntry is an immutable copy of a terminated SkillExecution. Entries
// are append-only; retention and export are external concerns.
type AuditEntry struct {
	ExecutionID string          `json:"execution_id" mapstructure:"execution_id"`
	SkillID     string          `json:"skill_id" mapstructure:"skill_id"`
	SkillName   string          `json:"skill_name,omitempty" mapstructure:"skill_name"`
	Parameters  map[string]any  `json:"parameters,omitempty" mapstructure:"parameters"`
	Status      ExecutionStatus `json:"status" mapstructure:"status"`
	Result      any             `json:"result,omitempty" mapstructure:"result"`
	Error       string          `json:"error,omitempty" mapstructure:"error"`
	StartedAt   time.Time       `json:"started_at" mapstructure:"started_at"`
	EndedAt     time.Time       `json:"ended_at" mapstructure:"ended_at"`
}

// NewAuditEntry snapshots a terminal execution. The parameter map is copied
// so later unregistration or edits cannot rewrite history.
func NewAuditEntry(exec *SkillExecution) AuditEntry {
	cp := exec.Clone()
	return AuditEntry{
		ExecutionID: cp.ID,
		SkillID:     cp.SkillID,
		SkillName:   cp.SkillName,
		Parameters:  cp.Parameters,
		Status:      cp.Status,
		Result:      cp.Result,
		Error:       cp.Error,
		StartedAt:   cp.StartedAt,
		EndedAt:     cp.EndedAt,
	}
}
