package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"loom/adapters/checkpoint"
	"loom/adapters/modelstub"
	"loom/adapters/yaegicode"
	"loom/internal/specfile"
	"loom/pkg/flow"
)

// loadSpec resolves the spec/template pair of flags shared by most
// subcommands.
func loadSpec(specPath, template string) (*flow.GraphSpec, error) {
	switch {
	case specPath != "":
		return specfile.Load(specPath)
	case template != "":
		return specfile.Template(template)
	default:
		return nil, fmt.Errorf("one of --spec or --template is required")
	}
}

// openStore returns the checkpoint store behind --db: a SQLite file when a
// path is given, in-memory otherwise. The returned closer is a no-op for
// the memory store.
func openStore(dbPath string) (flow.Store, func() error, error) {
	if dbPath == "" {
		return flow.NewMemoryStore(), func() error { return nil }, nil
	}
	st, err := checkpoint.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// buildServices wires the demo collaborators: a scripted model, the echo
// tool invoker, the yaegi code runner, and directory-based workflow lookup
// for subgraph nodes.
func buildServices(store flow.Store, replies []string, workflowsDir string) *flow.Services {
	return &flow.Services{
		Model:     modelstub.NewScripted(replies...),
		Tools:     modelstub.EchoTools{},
		Code:      yaegicode.New(),
		Workflows: dirLookup(workflowsDir),
		Store:     store,
	}
}

// dirLookup resolves workflow ids against a directory of spec files,
// falling back to the embedded templates.
type dirLookup string

func (d dirLookup) Lookup(ctx context.Context, id string) (*flow.GraphSpec, error) {
	if d != "" {
		for _, ext := range []string{".yaml", ".yml", ".json"} {
			path := filepath.Join(string(d), id+ext)
			if spec, err := specfile.Load(path); err == nil {
				return spec, nil
			}
		}
	}
	if spec, err := specfile.Template(id); err == nil {
		return spec, nil
	}
	return nil, fmt.Errorf("workflow %q not found", id)
}

// parseInputs turns repeated key=value flags into the run's input map.
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("input %q is not key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
