package nodes

import (
	"context"
	"fmt"
	"testing"

	"loom/pkg/flow"
)

func newTestReflection(t *testing.T, cfg flow.Config, model flow.ModelInvoker) *reflectionNode {
	t.Helper()
	b, err := newReflection(buildCtx("critic", "reflection", cfg, []string{"accept", "retry"}, model))
	if err != nil {
		t.Fatalf("newReflection: %v", err)
	}
	return b.(*reflectionNode)
}

func TestReflection_RetryThenAccept(t *testing.T) {
	calls := 0
	model := modelFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "RETRY: needs more detail", nil
		}
		return "ACCEPT", nil
	})
	n := newTestReflection(t, flow.Config{
		"input":           "writer.draft",
		"max_reflections": 3,
		"accept_target":   "accept",
		"retry_target":    "retry",
	}, model)
	ctx := context.Background()
	s := stateWithVars(map[string]map[string]any{"writer": {"draft": "v1"}})

	u, err := n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	flow.Apply(s, u)
	if got, _ := n.Route(ctx, s); got != "retry" {
		t.Errorf("route after RETRY = %q, want retry", got)
	}
	if fb := s.Variables["critic"]["feedback"]; fb != "needs more detail" {
		t.Errorf("feedback = %v", fb)
	}

	u, err = n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	flow.Apply(s, u)
	if got, _ := n.Route(ctx, s); got != "accept" {
		t.Errorf("route after ACCEPT = %q, want accept", got)
	}
}

func TestReflection_CapAlwaysWins(t *testing.T) {
	model := modelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "RETRY: still not good", nil
	})
	n := newTestReflection(t, flow.Config{"max_reflections": 2}, model)
	ctx := context.Background()
	s := flow.NewState()

	for visit := 1; visit <= 2; visit++ {
		u, err := n.Execute(ctx, s)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		flow.Apply(s, u)
	}
	// The evaluator kept saying RETRY, yet the cap routes to accept.
	got, err := n.Route(ctx, s)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if got != "accept" {
		t.Errorf("route at cap = %q, want accept", got)
	}
}

func TestReflection_EvaluatorErrorCountsAsAccept(t *testing.T) {
	model := modelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("backend down")
	})
	n := newTestReflection(t, flow.Config{}, model)
	ctx := context.Background()
	s := flow.NewState()

	u, err := n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("evaluator error must not fail the node: %v", err)
	}
	flow.Apply(s, u)
	if got, _ := n.Route(ctx, s); got != "accept" {
		t.Errorf("route = %q, want accept on evaluator error", got)
	}
}
