package nodes

import (
	"context"
	"log/slog"

	"loom/pkg/flow"
)

// modelFunc adapts a function into a ModelInvoker for tests.
type modelFunc func(ctx context.Context, prompt string) (string, error)

func (f modelFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// buildCtx assembles a BuildContext for direct factory tests.
func buildCtx(id, kind string, cfg flow.Config, targets []string, model flow.ModelInvoker) flow.BuildContext {
	return flow.BuildContext{
		Node:     flow.NodeSpec{ID: id, Type: kind, Config: cfg},
		Config:   cfg,
		Targets:  targets,
		Services: &flow.Services{Model: model},
		Registry: DefaultRegistry(),
		Log:      slog.Default(),
	}
}

// stateWithVars builds a state preloaded with variable namespaces.
func stateWithVars(vars map[string]map[string]any) *flow.State {
	s := flow.NewState()
	for node, ns := range vars {
		s.Variables[node] = ns
	}
	return s
}
