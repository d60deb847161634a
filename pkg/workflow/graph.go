package workflow

import (
	"fmt"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/skillgate/skillgate/pkg/schema"
)

// graph is the validated adjacency view of a workflow.
type graph struct {
	wf        domain.Workflow
	nodeIndex map[string]int // node id -> insertion index
	outgoing  map[string][]domain.WorkflowEdge
	incoming  map[string][]domain.WorkflowEdge
}

// buildGraph checks structural integrity: unique node ids and edge
// endpoints that reference existing nodes.
func buildGraph(wf domain.Workflow) (*graph, error) {
	g := &graph{
		wf:        wf,
		nodeIndex: make(map[string]int, len(wf.Nodes)),
		outgoing:  make(map[string][]domain.WorkflowEdge),
		incoming:  make(map[string][]domain.WorkflowEdge),
	}

	for i, n := range wf.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node %d has no id", domain.ErrGraphInvalid, i)
		}
		if _, dup := g.nodeIndex[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", domain.ErrGraphInvalid, n.ID)
		}
		g.nodeIndex[n.ID] = i
	}

	for _, e := range wf.Edges {
		if _, ok := g.nodeIndex[e.Source]; !ok {
			return nil, fmt.Errorf("%w: edge %q references unknown source node %q",
				domain.ErrGraphInvalid, e.ID, e.Source)
		}
		if _, ok := g.nodeIndex[e.Target]; !ok {
			return nil, fmt.Errorf("%w: edge %q references unknown target node %q",
				domain.ErrGraphInvalid, e.ID, e.Target)
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
	}

	return g, nil
}

// topoOrder computes one valid topological ordering, with ties broken by
// node insertion order so execution is deterministic. Returns
// domain.ErrCyclicGraph when no ordering exists.
func (g *graph) topoOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.wf.Nodes))
	for _, n := range g.wf.Nodes {
		indegree[n.ID] = len(g.incoming[n.ID])
	}

	order := make([]string, 0, len(g.wf.Nodes))
	done := make(map[string]bool, len(g.wf.Nodes))

	for len(order) < len(g.wf.Nodes) {
		picked := ""
		for _, n := range g.wf.Nodes {
			if !done[n.ID] && indegree[n.ID] == 0 {
				picked = n.ID
				break
			}
		}
		if picked == "" {
			return nil, fmt.Errorf("workflow %q: %w", g.wf.ID, domain.ErrCyclicGraph)
		}

		done[picked] = true
		order = append(order, picked)
		for _, e := range g.outgoing[picked] {
			indegree[e.Target]--
		}
	}

	return order, nil
}

// checkEdgeTypes verifies per-edge output/input compatibility against the
// skill signatures in reg. Data-binding edges (TargetParam set) require the
// source skill's output type to be compatible with the target parameter's
// declared type; ordering-only edges carry no data and are always valid.
func (g *graph) checkEdgeTypes(reg *registry.Registry) error {
	for _, e := range g.wf.Edges {
		if e.TargetParam == "" {
			continue
		}

		srcNode, _ := g.wf.Node(e.Source)
		srcDef, err := reg.Lookup(srcNode.SkillID)
		if err != nil {
			return fmt.Errorf("edge %q source: %w", e.ID, err)
		}

		tgtNode, _ := g.wf.Node(e.Target)
		tgtDef, err := reg.Lookup(tgtNode.SkillID)
		if err != nil {
			return fmt.Errorf("edge %q target: %w", e.ID, err)
		}

		param, ok := tgtDef.Parameter(e.TargetParam)
		if !ok {
			return fmt.Errorf("%w: edge %q binds parameter %q not declared by skill %q",
				domain.ErrGraphInvalid, e.ID, e.TargetParam, tgtDef.ID)
		}

		if !schema.Compatible(srcDef.OutputType(), param.Type) {
			return &domain.TypeMismatchError{
				EdgeID:     e.ID,
				SourceType: srcDef.OutputType(),
				TargetType: param.Type,
			}
		}
	}
	return nil
}
