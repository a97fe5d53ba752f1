package flow

import (
	"fmt"
	"strconv"
)

// GraphSpec is the declarative workflow description the engine consumes:
// typed nodes joined by directed, possibly cyclic edges.
type GraphSpec struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []NodeSpec `json:"nodes" yaml:"nodes"`
	Edges []EdgeSpec `json:"edges" yaml:"edges"`
}

// NodeSpec describes one node: a unique id, a type tag resolved against the
// behavior registry, and configuration. Configuration may arrive flat in
// Config or as nested group/key/value triples in Groups; FlatConfig merges
// both into a single mapping.
type NodeSpec struct {
	ID     string       `json:"id" yaml:"id"`
	Type   string       `json:"type" yaml:"type"`
	Name   string       `json:"name,omitempty" yaml:"name,omitempty"`
	Config Config       `json:"config,omitempty" yaml:"config,omitempty"`
	Groups []ParamGroup `json:"group_params,omitempty" yaml:"group_params,omitempty"`
}

// ParamGroup is one named group of configuration parameters.
type ParamGroup struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Params []Param `json:"params" yaml:"params"`
}

// Param is a single key/value configuration entry.
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// FlatConfig flattens Config and all group params into one mapping.
// Group params overwrite same-named flat keys.
func (n NodeSpec) FlatConfig() Config {
	out := make(Config, len(n.Config))
	for k, v := range n.Config {
		out[k] = v
	}
	for _, g := range n.Groups {
		for _, p := range g.Params {
			out[p.Key] = p.Value
		}
	}
	return out
}

// EdgeSpec is a directed edge. BackEdge marks an edge that intentionally
// closes a cycle; it only affects step-bound sizing, cycles are always legal.
type EdgeSpec struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	BackEdge bool   `json:"back_edge,omitempty" yaml:"back_edge,omitempty"`
}

// Config is a node's flattened key/value configuration. Values come from
// YAML/JSON decoding, so accessors tolerate the usual scalar encodings.
type Config map[string]any

// String returns the value at key as a string, or def when absent.
func (c Config) String(key, def string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the value at key as an int, or def when absent or unparsable.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
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
	return def
}

// Float returns the value at key as a float64, or def.
func (c Config) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the value at key as a bool, or def.
func (c Config) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Strings returns the value at key as a string slice. A scalar becomes a
// one-element slice; absence yields nil.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{fmt.Sprint(v)}
	}
}

// Map returns the value at key as a string-keyed mapping, or nil.
func (c Config) Map(key string) map[string]any {
	switch v := c[key].(type) {
	case map[string]any:
		return v
	case Config:
		return v
	}
	return nil
}

// List returns the value at key as a raw slice, or nil.
func (c Config) List(key string) []any {
	if v, ok := c[key].([]any); ok {
		return v
	}
	return nil
}
