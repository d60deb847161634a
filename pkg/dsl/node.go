package dsl

import "github.com/skillgate/skillgate/pkg/domain"

// NodeBuilder provides a fluent API for configuring a workflow node.
type NodeBuilder struct {
	node    domain.WorkflowNode
	builder *Builder
}

// Param sets a static parameter for the node's skill call. Values bound
// from upstream edges override statics at execution time.
func (n *NodeBuilder) Param(key string, value any) *NodeBuilder {
	if n.node.Params == nil {
		n.node.Params = make(map[string]any)
	}
	n.node.Params[key] = value
	return n
}

// At sets editor placement metadata for the node.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.NodePosition{X: x, Y: y}
	return n
}

// Then adds an ordering edge from this node to the target and returns the
// edge builder for further configuration.
func (n *NodeBuilder) Then(target string) *EdgeBuilder {
	return n.builder.Edge(n.node.ID, target)
}

// Build returns the underlying domain.WorkflowNode.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.WorkflowNode {
	return n.node
}

// EdgeBuilder provides a fluent API for configuring a workflow edge.
type EdgeBuilder struct {
	edge domain.WorkflowEdge
}

// ID overrides the generated edge id.
func (e *EdgeBuilder) ID(id string) *EdgeBuilder {
	e.edge.ID = id
	return e
}

// BindTo feeds the source node's output into the named target parameter.
func (e *EdgeBuilder) BindTo(param string) *EdgeBuilder {
	e.edge.TargetParam = param
	return e
}

// When gates the target node on a condition over the source node's result.
// See workflow.EvalCondition for the grammar.
func (e *EdgeBuilder) When(condition string) *EdgeBuilder {
	e.edge.Condition = condition
	return e
}
