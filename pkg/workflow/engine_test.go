package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/skillgate/skillgate/pkg/adapters/memory"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline records call order and returns scripted outcomes per skill.
type fakePipeline struct {
	mu      sync.Mutex
	calls   []fakeCall
	results map[string]any   // skill id -> result
	fail    map[string]string // skill id -> execution error
	reject  map[string]error  // skill id -> pre-admission error
}

type fakeCall struct {
	skillID string
	params  map[string]any
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		results: map[string]any{},
		fail:    map[string]string{},
		reject:  map[string]error{},
	}
}

func (f *fakePipeline) Execute(ctx context.Context, skillID string, params map[string]any) (*domain.SkillExecution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{skillID: skillID, params: params})
	f.mu.Unlock()

	if err, ok := f.reject[skillID]; ok {
		return nil, err
	}

	exec := &domain.SkillExecution{
		ID:      fmt.Sprintf("exec-%d", len(f.calls)),
		SkillID: skillID,
		Status:  domain.StatusCompleted,
	}
	if msg, ok := f.fail[skillID]; ok {
		exec.Status = domain.StatusFailed
		exec.Error = msg
	} else {
		exec.Result = f.results[skillID]
	}
	return exec, nil
}

func (f *fakePipeline) calledSkills() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.skillID
	}
	return out
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	defs := []domain.SkillDefinition{
		{
			ID: "fetch", Name: "Fetch",
			Parameters: []domain.SkillParameter{{Name: "url", Type: domain.ParamString}},
			Output:     domain.ParamString,
		},
		{
			ID: "transform", Name: "Transform",
			Parameters: []domain.SkillParameter{{Name: "input", Type: domain.ParamString}},
			Output:     domain.ParamString,
		},
		{
			ID: "store", Name: "Store",
			Parameters: []domain.SkillParameter{
				{Name: "data", Type: domain.ParamString},
				{Name: "count", Type: domain.ParamNumber},
			},
		},
	}
	for _, d := range defs {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func chainWorkflow() domain.Workflow {
	return domain.Workflow{
		ID:   "chain",
		Name: "A then B then C",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch", Params: map[string]any{"url": "https://x"}},
			{ID: "b", SkillID: "transform"},
			{ID: "c", SkillID: "store"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b", TargetParam: "input"},
			{ID: "e2", Source: "b", Target: "c", TargetParam: "data"},
		},
	}
}

func newTestEngine(t *testing.T, pipe PipelineRunner) *Engine {
	t.Helper()
	return New(testRegistry(t), pipe, memory.NewWorkflowStore())
}

func TestRunChainInOrder(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "raw"
	pipe.results["transform"] = "cooked"
	e := newTestEngine(t, pipe)

	result, err := e.Run(context.Background(), chainWorkflow(), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"a", "b", "c"}, result.ExecutedNodes)
	assert.Empty(t, result.SkippedNodes)
	assert.Equal(t, []string{"fetch", "transform", "store"}, pipe.calledSkills())
}

func TestRunBindsUpstreamOutputs(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "raw"
	pipe.results["transform"] = "cooked"
	e := newTestEngine(t, pipe)

	_, err := e.Run(context.Background(), chainWorkflow(), nil)
	require.NoError(t, err)

	require.Len(t, pipe.calls, 3)
	assert.Equal(t, "raw", pipe.calls[1].params["input"])
	assert.Equal(t, "cooked", pipe.calls[2].params["data"])
}

func TestRunEdgeBindingOverridesStaticParam(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "from-upstream"
	e := newTestEngine(t, pipe)

	wf := domain.Workflow{
		ID: "override",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform", Params: map[string]any{"input": "static"}},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b", TargetParam: "input"},
		},
	}

	_, err := e.Run(context.Background(), wf, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-upstream", pipe.calls[1].params["input"])
}

func TestRunWorkflowInputsFillDeclaredParams(t *testing.T) {
	pipe := newFakePipeline()
	e := newTestEngine(t, pipe)

	wf := domain.Workflow{
		ID:    "inputs",
		Nodes: []domain.WorkflowNode{{ID: "a", SkillID: "fetch"}},
	}

	_, err := e.Run(context.Background(), wf, map[string]any{"url": "https://y", "unrelated": 1})
	require.NoError(t, err)

	require.Len(t, pipe.calls, 1)
	assert.Equal(t, "https://y", pipe.calls[0].params["url"])
	// Inputs not declared by the skill are not forwarded.
	_, forwarded := pipe.calls[0].params["unrelated"]
	assert.False(t, forwarded)
}

func TestRunRejectsCycle(t *testing.T) {
	e := newTestEngine(t, newFakePipeline())

	wf := domain.Workflow{
		ID: "cycle",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}

	_, err := e.Run(context.Background(), wf, nil)
	assert.ErrorIs(t, err, domain.ErrCyclicGraph)
	assert.ErrorIs(t, e.Validate(wf), domain.ErrCyclicGraph)
}

func TestValidateStructuralErrors(t *testing.T) {
	e := newTestEngine(t, newFakePipeline())

	t.Run("duplicate node id", func(t *testing.T) {
		wf := domain.Workflow{
			ID: "dup",
			Nodes: []domain.WorkflowNode{
				{ID: "a", SkillID: "fetch"},
				{ID: "a", SkillID: "transform"},
			},
		}
		assert.ErrorIs(t, e.Validate(wf), domain.ErrGraphInvalid)
	})

	t.Run("dangling edge", func(t *testing.T) {
		wf := domain.Workflow{
			ID:    "dangling",
			Nodes: []domain.WorkflowNode{{ID: "a", SkillID: "fetch"}},
			Edges: []domain.WorkflowEdge{{ID: "e1", Source: "a", Target: "ghost"}},
		}
		assert.ErrorIs(t, e.Validate(wf), domain.ErrGraphInvalid)
	})

	t.Run("unknown target param", func(t *testing.T) {
		wf := domain.Workflow{
			ID: "badparam",
			Nodes: []domain.WorkflowNode{
				{ID: "a", SkillID: "fetch"},
				{ID: "b", SkillID: "transform"},
			},
			Edges: []domain.WorkflowEdge{
				{ID: "e1", Source: "a", Target: "b", TargetParam: "nope"},
			},
		}
		assert.ErrorIs(t, e.Validate(wf), domain.ErrGraphInvalid)
	})
}

func TestValidateTypeMismatch(t *testing.T) {
	e := newTestEngine(t, newFakePipeline())

	// fetch outputs string; store.count declares number.
	wf := domain.Workflow{
		ID: "mismatch",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "store"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b", TargetParam: "count"},
		},
	}

	err := e.Validate(wf)
	var mismatch *domain.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "e1", mismatch.EdgeID)
	assert.Equal(t, domain.ParamString, mismatch.SourceType)
	assert.Equal(t, domain.ParamNumber, mismatch.TargetType)
}

func TestValidateOrderingEdgeSkipsTypeCheck(t *testing.T) {
	e := newTestEngine(t, newFakePipeline())

	// Same topology as the mismatch case, but no data binding.
	wf := domain.Workflow{
		ID: "ordering",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "store"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b"},
		},
	}

	assert.NoError(t, e.Validate(wf))
}

func TestRunHaltsOnFailure(t *testing.T) {
	pipe := newFakePipeline()
	pipe.fail["transform"] = "transform exploded"
	e := newTestEngine(t, pipe)

	result, err := e.Run(context.Background(), chainWorkflow(), nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "b", result.FailedNode)
	assert.Equal(t, []string{"a", "b"}, result.ExecutedNodes)
	assert.Contains(t, result.Error, "transform exploded")

	// Node a ran before the halt; its effect is retained, c never runs.
	assert.Contains(t, result.Outputs, "a")
	assert.Equal(t, []string{"fetch", "transform"}, pipe.calledSkills())
}

func TestRunPreAdmissionFailure(t *testing.T) {
	pipe := newFakePipeline()
	pipe.reject["transform"] = domain.ErrSkillNotFound
	e := newTestEngine(t, pipe)

	result, err := e.Run(context.Background(), chainWorkflow(), nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "b", result.FailedNode)
	// A node that never admitted is not an executed node.
	assert.Equal(t, []string{"a"}, result.ExecutedNodes)
	assert.Contains(t, result.Error, "skill not found")
}

func TestRunConditionalEdgeSkipsTarget(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "no"
	e := newTestEngine(t, pipe)

	wf := domain.Workflow{
		ID: "conditional",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform"},
			{ID: "c", SkillID: "store"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b", Condition: `result == "yes"`},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}

	result, err := e.Run(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"a"}, result.ExecutedNodes)
	// b is skipped by its condition; c is skipped transitively.
	assert.Equal(t, []string{"b", "c"}, result.SkippedNodes)
	assert.Equal(t, []string{"fetch"}, pipe.calledSkills())
}

func TestRunConditionalEdgeTrueRunsTarget(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "yes"
	e := newTestEngine(t, pipe)

	wf := domain.Workflow{
		ID: "conditional",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b", Condition: `result == "yes"`},
		},
	}

	result, err := e.Run(context.Background(), wf, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.ExecutedNodes)
}

func TestRunDiamondDeterministicOrder(t *testing.T) {
	pipe := newFakePipeline()
	e := newTestEngine(t, pipe)

	// a fans out to b and c, both join at d. Ties break by node
	// declaration order, so the schedule is stable across runs.
	wf := domain.Workflow{
		ID: "diamond",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform"},
			{ID: "c", SkillID: "transform"},
			{ID: "d", SkillID: "store"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "c"},
			{ID: "e3", Source: "b", Target: "d"},
			{ID: "e4", Source: "c", Target: "d"},
		},
	}

	for i := 0; i < 3; i++ {
		result, err := e.Run(context.Background(), wf, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, result.ExecutedNodes)
	}
}

func TestSaveLoadExecute(t *testing.T) {
	pipe := newFakePipeline()
	pipe.results["fetch"] = "raw"
	e := newTestEngine(t, pipe)
	ctx := context.Background()

	wf := chainWorkflow()
	require.NoError(t, e.Save(ctx, wf))

	loaded, err := e.Load(ctx, "chain")
	require.NoError(t, err)
	assert.Equal(t, wf.Name, loaded.Name)

	ids, err := e.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chain"}, ids)

	result, err := e.Execute(ctx, "chain", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.NoError(t, e.Delete(ctx, "chain"))
	_, err = e.Execute(ctx, "chain", nil)
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestSaveRequiresID(t *testing.T) {
	e := newTestEngine(t, newFakePipeline())
	err := e.Save(context.Background(), domain.Workflow{Name: "anonymous"})
	assert.ErrorIs(t, err, domain.ErrGraphInvalid)
}

func TestSaveAcceptsCyclicGraph(t *testing.T) {
	// A cyclic draft may be stored; only execution validation rejects it.
	e := newTestEngine(t, newFakePipeline())
	wf := domain.Workflow{
		ID: "draft",
		Nodes: []domain.WorkflowNode{
			{ID: "a", SkillID: "fetch"},
			{ID: "b", SkillID: "transform"},
		},
		Edges: []domain.WorkflowEdge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}
	require.NoError(t, e.Save(context.Background(), wf))

	_, err := e.Execute(context.Background(), "draft", nil)
	assert.ErrorIs(t, err, domain.ErrCyclicGraph)
}

var _ PipelineRunner = (*fakePipeline)(nil)
