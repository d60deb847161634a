package domain

// WorkflowNode is one step in a workflow graph. Its SkillID names the skill
// the pipeline runs when the node is reached.
type WorkflowNode struct {
	ID      string `json:"id" yaml:"id" mapstructure:"id"`
	SkillID string `json:"skill_id" yaml:"skill_id" mapstructure:"skill_id"`

	// Params holds static parameters for the node's skill call. Values bound
	// from upstream outputs (see WorkflowEdge.TargetParam) override these.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	// Position is editor metadata, opaque to the engine.
	Position NodePosition `json:"position,omitzero" yaml:"position,omitempty" mapstructure:"position"`
}

// NodePosition is graph-editor placement metadata.
type NodePosition struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// WorkflowEdge connects a source node's output to a target node.
type WorkflowEdge struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id"`
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// TargetParam names the target parameter the source output feeds.
	// Empty means the edge only orders execution (no data binding).
	TargetParam string `json:"target_param,omitempty" yaml:"target_param,omitempty" mapstructure:"target_param"`

	// Condition gates the target node on the source node's result.
	// Empty means "always". See workflow.EvalCondition for the grammar.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
}

// Workflow is a directed graph of skill nodes. A saved workflow may be
// cyclic; acyclicity is enforced at execution validation, not on save.
type Workflow struct {
	ID    string         `json:"id" yaml:"id" mapstructure:"id"`
	Name  string         `json:"name" yaml:"name" mapstructure:"name"`
	Nodes []WorkflowNode `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []WorkflowEdge `json:"edges,omitempty" yaml:"edges,omitempty" mapstructure:"edges"`
}

// Node returns the node with the given id, if present.
func (w Workflow) Node(id string) (WorkflowNode, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return WorkflowNode{}, false
}

// WorkflowResult reports the outcome of one workflow execution.
// ExecutedNodes preserves execution order. Effects of executed nodes are
// never rolled back on failure.
type WorkflowResult struct {
	Success       bool           `json:"success"`
	ExecutedNodes []string       `json:"executed_nodes"`
	SkippedNodes  []string       `json:"skipped_nodes,omitempty"`
	FailedNode    string         `json:"failed_node,omitempty"`
	Error         string         `json:"error,omitempty"`
	Outputs       map[string]any `json:"outputs,omitempty"`
}
