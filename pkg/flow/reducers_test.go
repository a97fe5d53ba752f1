package flow

import "testing"

func TestApply_IterationCountAdditive(t *testing.T) {
	s := NewState()
	Apply(s, Update{IterationCount: 1})
	Apply(s, Update{IterationCount: 1})
	if s.IterationCount != 2 {
		t.Errorf("iteration count = %d, want 2", s.IterationCount)
	}
}

func TestApply_VariableNamespaceIsolation(t *testing.T) {
	s := NewState()
	Apply(s, Update{Variables: map[string]map[string]any{
		"a": {"x": 1, "y": 2},
		"b": {"x": 10},
	}})
	Apply(s, Update{Variables: map[string]map[string]any{
		"a": {"x": 99},
	}})

	if got := s.Variables["a"]["x"]; got != 99 {
		t.Errorf("a.x = %v, want 99", got)
	}
	if got := s.Variables["a"]["y"]; got != 2 {
		t.Errorf("a.y = %v, want 2 (untouched key must survive)", got)
	}
	if got := s.Variables["b"]["x"]; got != 10 {
		t.Errorf("b.x = %v, want 10 (other namespace must not change)", got)
	}
}

func TestApply_MessagesAppendAndDedup(t *testing.T) {
	s := NewState()
	m1 := Message{ID: "m1", Role: "user", Content: "hi"}
	m2 := Message{ID: "m2", Role: "assistant", Content: "hello"}

	Apply(s, Update{Messages: []Message{m1, m2}})
	Apply(s, Update{Messages: []Message{m1, {ID: "m3", Role: "user", Content: "again"}}})

	if len(s.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(s.Messages))
	}
	if s.Messages[0].ID != "m1" || s.Messages[1].ID != "m2" || s.Messages[2].ID != "m3" {
		t.Errorf("unexpected message order: %v", s.Messages)
	}
}

func TestApply_MessagesWithoutIDAlwaysAppend(t *testing.T) {
	s := NewState()
	m := Message{Role: "system", Content: "tick"}
	Apply(s, Update{Messages: []Message{m}})
	Apply(s, Update{Messages: []Message{m}})
	if len(s.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(s.Messages))
	}
}

func TestApply_ReplaceAndClearSemantics(t *testing.T) {
	s := NewState()
	Apply(s, Update{
		CurrentAgent:  StringPtr("researcher"),
		HumanFeedback: StringPtr("looks good"),
		FinalOutput:   StringPtr("done"),
	})
	if s.CurrentAgent != "researcher" || s.HumanFeedback != "looks good" || s.FinalOutput != "done" {
		t.Fatalf("replace merge failed: %+v", s)
	}

	// Nil pointers leave fields alone; empty pointers clear them.
	Apply(s, Update{HumanFeedback: StringPtr("")})
	if s.HumanFeedback != "" {
		t.Errorf("human feedback = %q, want cleared", s.HumanFeedback)
	}
	if s.CurrentAgent != "researcher" {
		t.Errorf("current agent = %q, want unchanged", s.CurrentAgent)
	}
}

func TestApply_IntermediateResultsAppend(t *testing.T) {
	s := NewState()
	Apply(s, Update{IntermediateResults: []string{"[0] a"}})
	Apply(s, Update{IntermediateResults: []string{"[1] b", "[2] c"}})
	if len(s.IntermediateResults) != 3 {
		t.Fatalf("expected 3 results, got %d", len(s.IntermediateResults))
	}
	if s.IntermediateResults[2] != "[2] c" {
		t.Errorf("results[2] = %q", s.IntermediateResults[2])
	}
}

func TestApply_MetadataShallowMerge(t *testing.T) {
	s := NewState()
	Apply(s, Update{Metadata: map[string]any{"a": 1, "b": 2}})
	Apply(s, Update{Metadata: map[string]any{"b": 3}})
	if s.Metadata["a"] != 1 || s.Metadata["b"] != 3 {
		t.Errorf("metadata = %v", s.Metadata)
	}
}

func TestState_CloneIsDeep(t *testing.T) {
	s := NewState()
	Apply(s, Update{
		Messages:  []Message{{ID: "m1", Role: "user", Content: "hi"}},
		Variables: map[string]map[string]any{"a": {"x": 1}},
	})
	c := s.Clone()
	c.Variables["a"]["x"] = 2
	c.Messages[0].Content = "changed"

	if s.Variables["a"]["x"] != 1 {
		t.Errorf("clone aliases variables")
	}
	if s.Messages[0].Content != "hi" {
		t.Errorf("clone aliases messages")
	}
}
