package flow

import "fmt"

// Validation is a structural lint of a GraphSpec. Errors would (or should)
// stop a run; warnings are survivable oddities worth fixing.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate lints the spec against the registry without compiling behaviors.
// It is stricter than Compile in what it reports but only errors on the
// conditions that make a graph unrunnable.
func Validate(spec *GraphSpec, reg Registry) Validation {
	var v Validation

	nodes := map[string]string{} // id -> type
	starts, ends := 0, 0
	for _, n := range spec.Nodes {
		if n.Type == "note" {
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			v.Errors = append(v.Errors, fmt.Sprintf("duplicate node id %q", n.ID))
			continue
		}
		nodes[n.ID] = n.Type
		switch n.Type {
		case "start":
			starts++
		case "end":
			ends++
		}
		if _, ok := reg[n.Type]; !ok {
			v.Warnings = append(v.Warnings, fmt.Sprintf("node %q has unknown type %q and will be dropped", n.ID, n.Type))
		}
	}
	if starts == 0 {
		v.Errors = append(v.Errors, "workflow has no start node")
	}
	if starts > 1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("workflow has %d start nodes, only the first is used", starts))
	}
	if ends == 0 {
		v.Errors = append(v.Errors, "workflow has no end node")
	}

	connected := map[string]bool{}
	for _, e := range spec.Edges {
		if _, ok := nodes[e.Source]; !ok {
			v.Warnings = append(v.Warnings, fmt.Sprintf("edge %q references missing source %q", e.ID, e.Source))
			continue
		}
		if _, ok := nodes[e.Target]; !ok {
			v.Warnings = append(v.Warnings, fmt.Sprintf("edge %q references missing target %q", e.ID, e.Target))
			continue
		}
		connected[e.Source] = true
		connected[e.Target] = true
		if e.BackEdge && !routerKinds[nodes[e.Source]] && !routerKinds[nodes[e.Target]] {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"back-edge %q connects %q to %q with no router on either end, the cycle cannot exit",
				e.ID, e.Source, e.Target))
		}
	}
	for id := range nodes {
		if !connected[id] {
			v.Warnings = append(v.Warnings, fmt.Sprintf("node %q is disconnected", id))
		}
	}

	v.Valid = len(v.Errors) == 0
	return v
}
