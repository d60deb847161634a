package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Structured variants
// (SignatureError, ParameterError, TypeMismatchError, NodeError) wrap these
// so callers can match with errors.Is while still reading field detail.
var (
	// ErrSkillNotFound is returned when a skill id is not registered.
	ErrSkillNotFound = errors.New("skill not found")

	// ErrSignatureInvalid is returned when a registration carries a malformed
	// parameter signature.
	ErrSignatureInvalid = errors.New("skill signature invalid")

	// ErrParameterInvalid is returned when call parameters do not satisfy the
	// skill's signature.
	ErrParameterInvalid = errors.New("parameters invalid")

	// ErrExecutionNotFound is returned for approve/deny/poll on an unknown
	// execution id. Pending executions do not survive a restart, so ids
	// minted before a restart also resolve to this error.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrAlreadyDecided is returned for approve/deny on a non-pending execution.
	ErrAlreadyDecided = errors.New("execution already decided")

	// ErrApprovalDenied marks an execution rejected by the human gatekeeper.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrCommandTimedOut marks a terminal command killed by the executor timeout.
	ErrCommandTimedOut = errors.New("command timed out")

	// ErrSpawnFailed marks a terminal command that never started.
	ErrSpawnFailed = errors.New("spawn failed")

	// ErrPathNotFound, ErrPermissionDenied and ErrIO classify file action failures.
	ErrPathNotFound     = errors.New("path not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrIO               = errors.New("io error")

	// ErrCyclicGraph is returned when a workflow graph has no topological order.
	ErrCyclicGraph = errors.New("workflow graph is cyclic")

	// ErrWorkflowNotFound is returned when a workflow id is not stored.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrGraphInvalid is returned for structural workflow defects other than
	// cycles: duplicate node ids, dangling edge endpoints, unknown skills.
	ErrGraphInvalid = errors.New("workflow graph invalid")
)

// SignatureError reports one malformed field in a skill signature.
type SignatureError struct {
	SkillID string
	Field   string
	Reason  string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("skill %q: field %q: %s", e.SkillID, e.Field, e.Reason)
}

func (e *SignatureError) Unwrap() error { return ErrSignatureInvalid }

// ParameterError reports one invalid call parameter.
type ParameterError struct {
	SkillID string
	Param   string
	Reason  string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("skill %q: parameter %q: %s", e.SkillID, e.Param, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrParameterInvalid }

// TypeMismatchError reports an edge whose source output type is incompatible
// with its target input type.
type TypeMismatchError struct {
	EdgeID     string
	SourceType ParamType
	TargetType ParamType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("edge %q: output type %q is not compatible with input type %q",
		e.EdgeID, e.SourceType, e.TargetType)
}

// NodeError wraps the failure of one workflow node.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("workflow node %q failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
