// Package workflow implements the workflow graph validator and sequencer.
//
// A workflow is a directed graph of skill nodes. The engine validates
// structure, acyclicity and edge type compatibility before any execution,
// then drives the execution pipeline node by node in one deterministic
// topological order. Execution is sequential: a node's pipeline call,
// including any approval wait, completes before the next node starts.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skillgate/skillgate/internal/logging"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
	"github.com/skillgate/skillgate/pkg/registry"
)

// PipelineRunner is the slice of the execution pipeline the workflow engine
// needs. *pipeline.Pipeline satisfies it.
type PipelineRunner interface {
	Execute(ctx context.Context, skillID string, params map[string]any) (*domain.SkillExecution, error)
}

// Engine validates and executes workflows.
type Engine struct {
	registry *registry.Registry
	pipeline PipelineRunner
	store    ports.WorkflowStore
	logger   *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a workflow engine.
func New(reg *registry.Registry, pipe PipelineRunner, store ports.WorkflowStore, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		pipeline: pipe,
		store:    store,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Save persists a workflow document. Graph validation is deliberately not
// performed here: a saved-but-cyclic workflow may exist and only fails at
// execution validation.
func (e *Engine) Save(ctx context.Context, wf domain.Workflow) error {
	if wf.ID == "" {
		return fmt.Errorf("%w: workflow id required", domain.ErrGraphInvalid)
	}
	return e.store.Save(ctx, wf)
}

// Load retrieves a stored workflow.
func (e *Engine) Load(ctx context.Context, id string) (domain.Workflow, error) {
	return e.store.Load(ctx, id)
}

// List returns stored workflow ids.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Delete removes a stored workflow.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Validate checks the workflow graph: structural integrity, acyclicity and
// per-edge type compatibility. All checks happen here, before any node runs.
func (e *Engine) Validate(wf domain.Workflow) error {
	g, err := buildGraph(wf)
	if err != nil {
		return err
	}
	if _, err := g.topoOrder(); err != nil {
		return err
	}
	return g.checkEdgeTypes(e.registry)
}

// Execute loads a stored workflow and runs it. See Run.
func (e *Engine) Execute(ctx context.Context, workflowID string, inputs map[string]any) (*domain.WorkflowResult, error) {
	wf, err := e.store.Load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, wf, inputs)
}

// Run validates and executes a workflow in one deterministic topological
// order. Node failures (including approval denials) halt the remaining
// nodes; effects of already-executed nodes are not rolled back. The
// returned error is reserved for validation failures — node failures are
// reported inside the result.
func (e *Engine) Run(ctx context.Context, wf domain.Workflow, inputs map[string]any) (*domain.WorkflowResult, error) {
	g, err := buildGraph(wf)
	if err != nil {
		return nil, err
	}
	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	if err := g.checkEdgeTypes(e.registry); err != nil {
		return nil, err
	}

	result := &domain.WorkflowResult{
		Success: true,
		Outputs: make(map[string]any),
	}
	skipped := make(map[string]bool, len(order))

	for _, nodeID := range order {
		node, _ := wf.Node(nodeID)

		if reason, skip := e.shouldSkip(g, nodeID, skipped, result.Outputs); skip {
			skipped[nodeID] = true
			result.SkippedNodes = append(result.SkippedNodes, nodeID)
			e.logger.InfoContext(ctx, "workflow node skipped",
				"workflow_id", wf.ID, "node_id", nodeID, "reason", reason)
			continue
		}

		params := e.resolveParams(g, node, inputs, result.Outputs)

		e.logger.InfoContext(ctx, "workflow node starting",
			"workflow_id", wf.ID, "node_id", nodeID, "skill_id", node.SkillID)

		exec, err := e.pipeline.Execute(ctx, node.SkillID, params)
		if err != nil {
			// Pre-admission failure (unknown skill, bad params).
			result.Success = false
			result.FailedNode = nodeID
			result.Error = (&domain.NodeError{NodeID: nodeID, Err: err}).Error()
			return result, nil
		}

		result.ExecutedNodes = append(result.ExecutedNodes, nodeID)
		result.Outputs[nodeID] = exec.Result

		if exec.Status != domain.StatusCompleted {
			result.Success = false
			result.FailedNode = nodeID
			result.Error = (&domain.NodeError{
				NodeID: nodeID,
				Err:    fmt.Errorf("%s", exec.Error),
			}).Error()
			e.logger.WarnContext(ctx, "workflow halted",
				"workflow_id", wf.ID, "failed_node", nodeID, "err", exec.Error)
			return result, nil
		}
	}

	return result, nil
}

// shouldSkip decides whether a node is gated off: any skipped upstream
// source, or any incoming conditional edge whose predicate over the source
// result is false.
func (e *Engine) shouldSkip(g *graph, nodeID string, skipped map[string]bool, outputs map[string]any) (string, bool) {
	for _, edge := range g.incoming[nodeID] {
		if skipped[edge.Source] {
			return fmt.Sprintf("upstream node %s skipped", edge.Source), true
		}
		if edge.Condition == "" {
			continue
		}
		if !EvalCondition(edge.Condition, outputs[edge.Source]) {
			return fmt.Sprintf("condition %q on edge %s is false", edge.Condition, edge.ID), true
		}
	}
	return "", false
}

// resolveParams assembles a node's parameters: static node params, then
// workflow inputs for declared-but-unset parameters, then upstream outputs
// bound along data edges (highest precedence).
func (e *Engine) resolveParams(g *graph, node domain.WorkflowNode, inputs map[string]any, outputs map[string]any) map[string]any {
	params := make(map[string]any, len(node.Params))
	for k, v := range node.Params {
		params[k] = v
	}

	if def, err := e.registry.Lookup(node.SkillID); err == nil {
		for _, p := range def.Parameters {
			if _, set := params[p.Name]; set {
				continue
			}
			if v, ok := inputs[p.Name]; ok {
				params[p.Name] = v
			}
		}
	}

	for _, edge := range g.incoming[node.ID] {
		if edge.TargetParam == "" {
			continue
		}
		if out, ok := outputs[edge.Source]; ok {
			params[edge.TargetParam] = out
		}
	}

	return params
}
