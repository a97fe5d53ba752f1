package flow

import "context"

// fakeBehavior is a minimal behavior for parser/compiler/engine tests.
type fakeBehavior struct {
	id   string
	kind string
	exec func(ctx context.Context, s *State) (Update, error)
}

func (f *fakeBehavior) ID() string   { return f.id }
func (f *fakeBehavior) Kind() string { return f.kind }

func (f *fakeBehavior) Execute(ctx context.Context, s *State) (Update, error) {
	if f.exec == nil {
		return Update{}, nil
	}
	return f.exec(ctx, s)
}

// fakeRouter adds a route function, driven by the node's "goto" config key
// when set, first declared target otherwise.
type fakeRouter struct {
	fakeBehavior
	route func(ctx context.Context, s *State) (string, error)
}

func (f *fakeRouter) Route(ctx context.Context, s *State) (string, error) {
	return f.route(ctx, s)
}

func testRegistry() Registry {
	plain := func(kind string) Factory {
		return func(bc BuildContext) (Behavior, error) {
			return &fakeBehavior{id: bc.Node.ID, kind: kind}, nil
		}
	}
	router := func(kind string) Factory {
		return func(bc BuildContext) (Behavior, error) {
			next := bc.Config.String("goto", "")
			targets := bc.Targets
			return &fakeRouter{
				fakeBehavior: fakeBehavior{id: bc.Node.ID, kind: kind},
				route: func(ctx context.Context, s *State) (string, error) {
					if next != "" {
						return next, nil
					}
					if len(targets) > 0 {
						return targets[0], nil
					}
					return End, nil
				},
			}, nil
		}
	}
	return Registry{
		"start":     plain("start"),
		"end":       plain("end"),
		"task":      plain("task"),
		"human":     plain("human"),
		"condition": router("condition"),
		"loop":      router("loop"),
	}
}

// linearSpec is start -> a -> b -> end.
func linearSpec() *GraphSpec {
	return &GraphSpec{
		ID: "wf-linear",
		Nodes: []NodeSpec{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "task"},
			{ID: "b", Type: "task"},
			{ID: "end", Type: "end"},
		},
		Edges: []EdgeSpec{
			{ID: "e1", Source: "start", Target: "a"},
			{ID: "e2", Source: "a", Target: "b"},
			{ID: "e3", Source: "b", Target: "end"},
		},
	}
}
