package flow

import (
	"fmt"
	"log/slog"
)

// routerKinds are the node kinds whose behavior decides the next node
// dynamically at run time.
var routerKinds = map[string]bool{
	"condition":  true,
	"loop":       true,
	"reflection": true,
	"supervisor": true,
}

// Parsed is the adjacency and role classification of a GraphSpec, the
// compiler's input. Cycles are legal; back-edges are only recorded so the
// compiler can size the step bound.
type Parsed struct {
	Spec        *GraphSpec
	Nodes       map[string]NodeSpec
	Targets     map[string][]string // source id -> target ids, edge order
	Sources     map[string][]string // target id -> source ids, edge order
	Entry       string
	Terminals   map[string]bool
	Interrupts  map[string]bool
	Routers     map[string]bool
	HasBackEdge bool
	Warnings    []string
}

// Parse classifies nodes and builds adjacency maps. Nodes with a type tag
// the registry does not know are dropped with a warning; edges touching a
// missing node are skipped. The only fatal condition is the absence of a
// start node.
func Parse(spec *GraphSpec, reg Registry, log *slog.Logger) (*Parsed, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Parsed{
		Spec:       spec,
		Nodes:      map[string]NodeSpec{},
		Targets:    map[string][]string{},
		Sources:    map[string][]string{},
		Terminals:  map[string]bool{},
		Interrupts: map[string]bool{},
		Routers:    map[string]bool{},
	}

	for _, n := range spec.Nodes {
		if n.Type == "note" {
			continue
		}
		if _, ok := reg[n.Type]; !ok {
			p.warn(log, fmt.Sprintf("node %q has unknown type %q, dropped", n.ID, n.Type))
			continue
		}
		if _, dup := p.Nodes[n.ID]; dup {
			p.warn(log, fmt.Sprintf("duplicate node id %q, keeping first", n.ID))
			continue
		}
		p.Nodes[n.ID] = n

		switch {
		case n.Type == "start":
			if p.Entry != "" {
				p.warn(log, fmt.Sprintf("multiple start nodes, keeping %q, ignoring %q", p.Entry, n.ID))
				break
			}
			p.Entry = n.ID
		case n.Type == "end":
			p.Terminals[n.ID] = true
		case n.Type == "human":
			p.Interrupts[n.ID] = true
		}
		if routerKinds[n.Type] {
			p.Routers[n.ID] = true
		}
	}

	for _, e := range spec.Edges {
		if _, ok := p.Nodes[e.Source]; !ok {
			p.warn(log, fmt.Sprintf("edge %q skipped: source %q not in graph", e.ID, e.Source))
			continue
		}
		if _, ok := p.Nodes[e.Target]; !ok {
			p.warn(log, fmt.Sprintf("edge %q skipped: target %q not in graph", e.ID, e.Target))
			continue
		}
		p.Targets[e.Source] = append(p.Targets[e.Source], e.Target)
		p.Sources[e.Target] = append(p.Sources[e.Target], e.Source)
		if e.BackEdge {
			p.HasBackEdge = true
		}
	}

	if p.Entry == "" {
		return nil, ErrNoStartNode
	}
	return p, nil
}

func (p *Parsed) warn(log *slog.Logger, msg string) {
	log.Warn(msg, "workflow", p.Spec.ID)
	p.Warnings = append(p.Warnings, msg)
}
