package flow

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Classification(t *testing.T) {
	spec := &GraphSpec{
		ID: "wf-classify",
		Nodes: []NodeSpec{
			{ID: "start", Type: "start"},
			{ID: "route", Type: "condition"},
			{ID: "work", Type: "task"},
			{ID: "gate", Type: "human"},
			{ID: "end", Type: "end"},
		},
		Edges: []EdgeSpec{
			{ID: "e1", Source: "start", Target: "route"},
			{ID: "e2", Source: "route", Target: "work"},
			{ID: "e3", Source: "route", Target: "end"},
			{ID: "e4", Source: "work", Target: "gate"},
			{ID: "e5", Source: "gate", Target: "route", BackEdge: true},
		},
	}
	p, err := Parse(spec, testRegistry(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if p.Entry != "start" {
		t.Errorf("entry = %q, want start", p.Entry)
	}
	if !p.Terminals["end"] {
		t.Errorf("end not classified terminal")
	}
	if !p.Interrupts["gate"] {
		t.Errorf("gate not classified interrupt")
	}
	if !p.Routers["route"] {
		t.Errorf("route not classified router-bearing")
	}
	if p.Routers["work"] {
		t.Errorf("task must not be router-bearing")
	}
	if !p.HasBackEdge {
		t.Errorf("back-edge not recorded")
	}
	if got := p.Targets["route"]; len(got) != 2 || got[0] != "work" || got[1] != "end" {
		t.Errorf("route targets = %v, want [work end] in edge order", got)
	}
	if got := p.Sources["route"]; len(got) != 2 || got[0] != "start" || got[1] != "gate" {
		t.Errorf("route sources = %v", got)
	}
}

func TestParse_UnknownTypeDroppedWithWarning(t *testing.T) {
	spec := &GraphSpec{
		ID: "wf-unknown",
		Nodes: []NodeSpec{
			{ID: "start", Type: "start"},
			{ID: "mystery", Type: "quantum"},
			{ID: "end", Type: "end"},
		},
		Edges: []EdgeSpec{
			{ID: "e1", Source: "start", Target: "mystery"},
			{ID: "e2", Source: "start", Target: "end"},
		},
	}
	p, err := Parse(spec, testRegistry(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := p.Nodes["mystery"]; ok {
		t.Errorf("unknown-typed node must be dropped")
	}
	found := false
	for _, w := range p.Warnings {
		if strings.Contains(w, "mystery") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning naming the dropped node, got %v", p.Warnings)
	}
	// The edge into the dropped node is skipped, the rest survives.
	if got := p.Targets["start"]; len(got) != 1 || got[0] != "end" {
		t.Errorf("start targets = %v, want [end]", got)
	}
}

func TestParse_NoteNodesSkippedSilently(t *testing.T) {
	spec := &GraphSpec{
		ID: "wf-note",
		Nodes: []NodeSpec{
			{ID: "start", Type: "start"},
			{ID: "memo", Type: "note"},
			{ID: "end", Type: "end"},
		},
		Edges: []EdgeSpec{{ID: "e1", Source: "start", Target: "end"}},
	}
	p, err := Parse(spec, testRegistry(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("note nodes must not warn, got %v", p.Warnings)
	}
}

func TestParse_NoStartNodeFails(t *testing.T) {
	spec := &GraphSpec{
		ID: "wf-nostart",
		Nodes: []NodeSpec{
			{ID: "a", Type: "task"},
			{ID: "end", Type: "end"},
		},
		Edges: []EdgeSpec{{ID: "e1", Source: "a", Target: "end"}},
	}
	if _, err := Parse(spec, testRegistry(), nil); !errors.Is(err, ErrNoStartNode) {
		t.Errorf("err = %v, want ErrNoStartNode", err)
	}
}
