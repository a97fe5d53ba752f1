package nodes

import (
	"context"
	"testing"

	"loom/pkg/flow"
)

func TestHuman_InterruptRequestDescribesInteraction(t *testing.T) {
	b, err := newHuman(buildCtx("gate", "human", flow.Config{
		"interaction_type": "edit",
		"prompt":           "Review: {{#writer.draft#}}",
		"output_key":       "decision",
	}, []string{"end"}, nil))
	if err != nil {
		t.Fatalf("newHuman: %v", err)
	}
	n := b.(*humanNode)

	s := stateWithVars(map[string]map[string]any{"writer": {"draft": "v1"}})
	req := n.InterruptRequest(s)
	if req["interaction_type"] != "edit" {
		t.Errorf("interaction_type = %v", req["interaction_type"])
	}
	if req["prompt"] != "Review: v1" {
		t.Errorf("prompt = %v, want interpolated", req["prompt"])
	}
	if req["output_key"] != "decision" {
		t.Errorf("output_key = %v", req["output_key"])
	}
}

func TestHuman_ConsumesFeedbackExactlyOnce(t *testing.T) {
	b, err := newHuman(buildCtx("gate", "human", flow.Config{}, []string{"end"}, nil))
	if err != nil {
		t.Fatalf("newHuman: %v", err)
	}
	n := b.(*humanNode)
	ctx := context.Background()

	s := flow.NewState()
	s.HumanFeedback = "approved"

	u, err := n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	flow.Apply(s, u)

	if got := s.Variables["gate"]["feedback"]; got != "approved" {
		t.Errorf("gate.feedback = %v, want approved under the default output key", got)
	}
	if s.HumanFeedback != "" {
		t.Errorf("human_feedback = %q after consumption, want cleared", s.HumanFeedback)
	}

	// A second execution with no pending feedback changes nothing.
	u, err = n.Execute(ctx, s)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if u.Variables != nil || u.HumanFeedback != nil {
		t.Errorf("second visit without feedback must be a no-op: %+v", u)
	}
}

func TestHuman_Defaults(t *testing.T) {
	b, err := newHuman(buildCtx("gate", "human", flow.Config{}, nil, nil))
	if err != nil {
		t.Fatalf("newHuman: %v", err)
	}
	n := b.(*humanNode)
	if n.interactionType != "approve" || n.outputKey != "feedback" {
		t.Errorf("defaults = %q/%q, want approve/feedback", n.interactionType, n.outputKey)
	}
}
