package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"loom/pkg/flow"
)

// lookupFunc adapts a function into a WorkflowLookup.
type lookupFunc func(ctx context.Context, id string) (*flow.GraphSpec, error)

func (f lookupFunc) Lookup(ctx context.Context, id string) (*flow.GraphSpec, error) {
	return f(ctx, id)
}

func childSpec() *flow.GraphSpec {
	return &flow.GraphSpec{
		ID: "child-wf",
		Nodes: []flow.NodeSpec{
			{ID: "start", Type: "start"},
			{ID: "worker", Type: "llm", Config: flow.Config{
				"prompt":     "process {{#start.subject#}}",
				"output_key": "result",
			}},
			{ID: "end", Type: "end", Config: flow.Config{"output": "worker.result"}},
		},
		Edges: []flow.EdgeSpec{
			{Source: "start", Target: "worker"},
			{Source: "worker", Target: "end"},
		},
	}
}

func newTestSubgraph(t *testing.T, cfg flow.Config, svc *flow.Services) *subgraphNode {
	t.Helper()
	bc := flow.BuildContext{
		Node:     flow.NodeSpec{ID: "nested", Type: "subgraph", Config: cfg},
		Config:   cfg,
		Targets:  []string{"end"},
		Services: svc,
		Registry: DefaultRegistry(),
		Log:      slog.Default(),
	}
	b, err := newSubgraph(bc)
	if err != nil {
		t.Fatalf("newSubgraph: %v", err)
	}
	return b.(*subgraphNode)
}

func TestSubgraph_RunsChildAndMapsOutputs(t *testing.T) {
	store := flow.NewMemoryStore()
	svc := &flow.Services{
		Model: modelFunc(func(ctx context.Context, prompt string) (string, error) {
			return "done: " + prompt, nil
		}),
		Workflows: lookupFunc(func(ctx context.Context, id string) (*flow.GraphSpec, error) {
			if id != "child-wf" {
				return nil, fmt.Errorf("unknown workflow %q", id)
			}
			return childSpec(), nil
		}),
		Store: store,
	}
	n := newTestSubgraph(t, flow.Config{
		"workflow_id":    "child-wf",
		"input_mapping":  map[string]any{"subject": "parent.topic"},
		"output_mapping": map[string]any{"summary": "worker.result"},
	}, svc)

	ctx := flow.WithRunInfo(context.Background(), flow.RunInfo{WorkflowID: "parent-wf", ThreadID: "p1"})
	s := stateWithVars(map[string]map[string]any{"parent": {"topic": "ledgers"}})

	u, err := n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	ns := u.Variables["nested"]
	if ns == nil {
		t.Fatal("no namespace update")
	}
	if ns["output"] != "done: process ledgers" {
		t.Errorf("output = %v", ns["output"])
	}
	if ns["summary"] != "done: process ledgers" {
		t.Errorf("mapped summary = %v", ns["summary"])
	}

	// The child checkpointed under its composite thread id, isolated from
	// the parent's history.
	if ns["thread_id"] != "p1_sub_nested" {
		t.Errorf("child thread id = %v", ns["thread_id"])
	}
	if _, err := store.Latest(ctx, "child-wf", "p1_sub_nested"); err != nil {
		t.Errorf("child checkpoints missing: %v", err)
	}
	if _, err := store.Latest(ctx, "parent-wf", "p1"); err == nil {
		t.Errorf("child run must not write parent-thread checkpoints")
	}
}

func TestSubgraph_FailureBecomesErrorValue(t *testing.T) {
	svc := &flow.Services{
		Workflows: lookupFunc(func(ctx context.Context, id string) (*flow.GraphSpec, error) {
			return nil, fmt.Errorf("registry offline")
		}),
		Store: flow.NewMemoryStore(),
	}
	n := newTestSubgraph(t, flow.Config{"workflow_id": "child-wf"}, svc)

	u, err := n.Execute(context.Background(), flow.NewState())
	if err != nil {
		t.Fatalf("child failure must not abort the parent: %v", err)
	}
	if msg, _ := u.Variables["nested"]["error"].(string); msg == "" {
		t.Errorf("expected a textual error surrogate, got %v", u.Variables)
	}
}

func TestSubgraph_RequiresWorkflowID(t *testing.T) {
	bc := flow.BuildContext{
		Node:     flow.NodeSpec{ID: "nested", Type: "subgraph"},
		Config:   flow.Config{},
		Services: &flow.Services{},
		Registry: DefaultRegistry(),
		Log:      slog.Default(),
	}
	if _, err := newSubgraph(bc); err == nil {
		t.Errorf("expected an error for a missing workflow_id")
	}
}
