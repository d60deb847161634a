package dsl

import (
	"fmt"

	"github.com/skillgate/skillgate/pkg/domain"
)

// Builder manages workflow graph construction. Nodes and edges keep their
// declaration order, so built workflows are deterministic.
type Builder struct {
	id    string
	name  string
	nodes []*NodeBuilder
	byID  map[string]*NodeBuilder
	edges []*EdgeBuilder
}

// New creates a new workflow builder with the given workflow id.
func New(id string) *Builder {
	return &Builder{
		id:   id,
		byID: make(map[string]*NodeBuilder),
	}
}

// Name sets the human-readable workflow name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Node creates a new node bound to the given skill.
// If the node already exists, it returns the existing builder.
func (b *Builder) Node(id, skillID string) *NodeBuilder {
	if nb, ok := b.byID[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.WorkflowNode{
			ID:      id,
			SkillID: skillID,
		},
		builder: b,
	}
	b.nodes = append(b.nodes, nb)
	b.byID[id] = nb
	return nb
}

// Edge connects a source node to a target node. By default the edge only
// orders execution; chain BindTo to feed the source output into a target
// parameter, and When to gate the target on the source result.
func (b *Builder) Edge(source, target string) *EdgeBuilder {
	eb := &EdgeBuilder{
		edge: domain.WorkflowEdge{
			ID:     fmt.Sprintf("%s-%s", source, target),
			Source: source,
			Target: target,
		},
	}
	b.edges = append(b.edges, eb)
	return eb
}

// Build compiles the workflow. It rejects edges that reference undeclared
// nodes; full graph validation (cycles, parameter types) happens when the
// workflow engine admits the document.
func (b *Builder) Build() (domain.Workflow, error) {
	for _, eb := range b.edges {
		if _, ok := b.byID[eb.edge.Source]; !ok {
			return domain.Workflow{}, fmt.Errorf("%w: edge %s references unknown source node %q",
				domain.ErrGraphInvalid, eb.edge.ID, eb.edge.Source)
		}
		if _, ok := b.byID[eb.edge.Target]; !ok {
			return domain.Workflow{}, fmt.Errorf("%w: edge %s references unknown target node %q",
				domain.ErrGraphInvalid, eb.edge.ID, eb.edge.Target)
		}
	}

	wf := domain.Workflow{
		ID:    b.id,
		Name:  b.name,
		Nodes: make([]domain.WorkflowNode, 0, len(b.nodes)),
		Edges: make([]domain.WorkflowEdge, 0, len(b.edges)),
	}
	for _, nb := range b.nodes {
		wf.Nodes = append(wf.Nodes, nb.node)
	}
	for _, eb := range b.edges {
		wf.Edges = append(wf.Edges, eb.edge)
	}
	return wf, nil
}
