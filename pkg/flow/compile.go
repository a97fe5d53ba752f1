package flow

import (
	"fmt"
	"log/slog"
)

// Sentinel node ids the compiler wires around the user's graph. They never
// appear in a GraphSpec.
const (
	Start = "_start"
	End   = "_end"
)

const (
	defaultPerStepCap = 50
	minStepBound      = 50
)

// CompiledGraph is the executable automaton built from one parsed spec.
// It is immutable after Compile and owned by the engine runs driving it.
type CompiledGraph struct {
	WorkflowID string
	Behaviors  map[string]Behavior
	Targets    map[string][]string
	Sources    map[string][]string
	Entry      string
	Terminals  map[string]bool
	Interrupts map[string]bool
	RouteMaps  map[string]map[string]bool // router id -> ids it may return
	Static     map[string]string          // linear id -> its single next id
	StepBound  int
	Warnings   []string

	Stream   *Stream
	Services *Services
	Registry Registry
	Log      *slog.Logger
}

type compileConfig struct {
	services   *Services
	stream     *Stream
	user       string
	perStepCap int
	log        *slog.Logger
}

// CompileOption adjusts a compile.
type CompileOption func(*compileConfig)

// WithServices supplies the collaborators node behaviors delegate to.
func WithServices(s *Services) CompileOption {
	return func(c *compileConfig) { c.services = s }
}

// WithStream supplies the event stream behaviors and the engine emit on.
func WithStream(s *Stream) CompileOption {
	return func(c *compileConfig) { c.stream = s }
}

// WithUser records the initiating user, surfaced in start-node metadata.
func WithUser(user string) CompileOption {
	return func(c *compileConfig) { c.user = user }
}

// WithPerStepCap overrides the per-node step allowance used to size the
// step bound of cyclic graphs.
func WithPerStepCap(n int) CompileOption {
	return func(c *compileConfig) { c.perStepCap = n }
}

// WithLogger overrides the compile and run logger.
func WithLogger(log *slog.Logger) CompileOption {
	return func(c *compileConfig) { c.log = log }
}

// Compile parses the spec and wires it into a CompiledGraph: behaviors
// instantiated through the registry, static edges for linear nodes, route
// maps for router-bearing nodes, interrupt gating for human nodes, and a
// computed step bound. Fails on a missing start node or a router
// configured against an undeclared target.
func Compile(spec *GraphSpec, reg Registry, opts ...CompileOption) (*CompiledGraph, error) {
	cfg := compileConfig{perStepCap: defaultPerStepCap}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}
	if cfg.stream == nil {
		cfg.stream = NewStream(cfg.log)
	}
	if cfg.services == nil {
		cfg.services = &Services{}
	}

	p, err := Parse(spec, reg, cfg.log)
	if err != nil {
		return nil, err
	}

	g := &CompiledGraph{
		WorkflowID: spec.ID,
		Behaviors:  map[string]Behavior{},
		Targets:    p.Targets,
		Sources:    p.Sources,
		Entry:      p.Entry,
		Terminals:  p.Terminals,
		Interrupts: p.Interrupts,
		RouteMaps:  map[string]map[string]bool{},
		Static:     map[string]string{},
		Warnings:   p.Warnings,
		Stream:     cfg.stream,
		Services:   cfg.services,
		Registry:   reg,
		Log:        cfg.log,
	}

	for id, n := range p.Nodes {
		bc := BuildContext{
			Node:       n,
			Config:     n.FlatConfig(),
			Targets:    p.Targets[id],
			WorkflowID: spec.ID,
			User:       cfg.user,
			Services:   cfg.services,
			Stream:     cfg.stream,
			Registry:   reg,
			Log:        cfg.log,
		}
		b, err := reg[n.Type](bc)
		if err != nil {
			return nil, fmt.Errorf("compile node %q: %w", id, err)
		}
		g.Behaviors[id] = b

		switch {
		case p.Routers[id]:
			allowed := map[string]bool{End: true}
			for _, t := range p.Targets[id] {
				allowed[t] = true
			}
			g.RouteMaps[id] = allowed
		case p.Terminals[id]:
			g.Static[id] = End
		default:
			targets := p.Targets[id]
			if len(targets) == 0 {
				g.Static[id] = End
				break
			}
			if len(targets) > 1 {
				cfg.log.Warn("linear node has multiple targets, using first",
					"workflow", spec.ID, "node", id, "target", targets[0])
			}
			g.Static[id] = targets[0]
		}
	}

	n := len(p.Nodes)
	if p.HasBackEdge {
		g.StepBound = max(n*cfg.perStepCap, minStepBound)
	} else {
		g.StepBound = max(n*3, minStepBound)
	}
	return g, nil
}
