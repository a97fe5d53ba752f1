// Package nodes implements the closed set of node behavior kinds the flow
// engine can execute: control nodes (start, end, condition, loop,
// reflection, supervisor, human), fan-out (map_reduce), nesting (subgraph),
// and delegating worker nodes (agent, llm, tool, code).
package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"loom/pkg/flow"
)

// base carries the identity every behavior shares.
type base struct {
	id   string
	kind string
}

func (b base) ID() string   { return b.id }
func (b base) Kind() string { return b.kind }

// nsInt reads an int out of a node's variable namespace, tolerating the
// numeric encodings JSON round-trips produce.
func nsInt(s *flow.State, node, key string) int {
	ns, ok := s.Variables[node]
	if !ok {
		return 0
	}
	switch v := ns[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// nsString reads a string out of a node's variable namespace.
func nsString(s *flow.State, node, key string) string {
	ns, ok := s.Variables[node]
	if !ok {
		return ""
	}
	v, ok := ns[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// resolveText resolves a configured text field: inline references are
// interpolated, and a bare "nodeId.key" path that names a variable
// resolves to its value.
func resolveText(s *flow.State, raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "{{#") {
		return flow.Interpolate(raw, s)
	}
	if v, ok := s.Variable(raw); ok {
		if str, isStr := v.(string); isStr {
			return str
		}
		return fmt.Sprint(v)
	}
	return raw
}

// firstTarget returns the first declared edge target, or def when the node
// has none.
func firstTarget(targets []string, def string) string {
	if len(targets) > 0 {
		return targets[0]
	}
	return def
}

// lastTarget returns the last declared edge target, or def.
func lastTarget(targets []string, def string) string {
	if len(targets) > 0 {
		return targets[len(targets)-1]
	}
	return def
}
