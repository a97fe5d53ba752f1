package flow

import (
	"context"
	"log/slog"
)

// Behavior is the unit of execution behind one node. Execute receives the
// current state read-only and returns a partial update; the engine owns the
// merge. Behaviors that also decide where to go next implement Router.
type Behavior interface {
	ID() string
	Kind() string
	Execute(ctx context.Context, s *State) (Update, error)
}

// Router computes the next node id from post-merge state. Returning End
// completes the run. The id must be one the compiler registered for this
// node, otherwise the run fails.
type Router interface {
	Route(ctx context.Context, s *State) (string, error)
}

// Interrupter lets an interrupt-gated behavior describe the interaction it
// is waiting for. The engine emits the returned payload with the
// human-input-request event before suspending.
type Interrupter interface {
	InterruptRequest(s *State) map[string]any
}

// ModelInvoker is the model-invocation collaborator: prompt in, text out.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// StreamingModelInvoker is optionally implemented by model backends that
// can deliver incremental chunks. Behaviors fall back to Invoke when the
// backend does not support it.
type StreamingModelInvoker interface {
	InvokeStream(ctx context.Context, prompt string, emit func(chunk string)) (string, error)
}

// ToolInvoker is the tool-invocation collaborator.
type ToolInvoker interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// WorkflowLookup resolves a workflow id to its spec. Subgraph nodes use it
// to fetch the nested workflow.
type WorkflowLookup interface {
	Lookup(ctx context.Context, id string) (*GraphSpec, error)
}

// CodeRunner executes an isolated code snippet with named inputs and
// returns its named outputs.
type CodeRunner interface {
	Run(ctx context.Context, code string, inputs map[string]any) (map[string]any, error)
}

// Services bundles the external collaborators node behaviors may need.
// Absent collaborators are nil; a behavior that needs one fails its
// execution with a clear error instead of panicking.
type Services struct {
	Model     ModelInvoker
	Tools     ToolInvoker
	Workflows WorkflowLookup
	Code      CodeRunner
	Store     Store
}

// BuildContext is everything a behavior factory sees for one node at
// compile time.
type BuildContext struct {
	Node       NodeSpec
	Config     Config   // flattened node configuration
	Targets    []string // declared edge targets, in declaration order
	WorkflowID string
	User       string
	Services   *Services
	Stream     *Stream
	Registry   Registry
	Log        *slog.Logger
}

// Factory builds the behavior for one node. Returning an error fails the
// compile.
type Factory func(bc BuildContext) (Behavior, error)

// Registry maps node type tags to behavior factories. It is the closed set
// of node kinds a compile can resolve.
type Registry map[string]Factory

// runInfoKey carries per-run identity through node executions, so nested
// behaviors (subgraphs) can derive scoped thread ids.
type runInfoKey struct{}

// RunInfo identifies the run a behavior is executing within.
type RunInfo struct {
	WorkflowID string
	ThreadID   string
}

// WithRunInfo attaches run identity to the context.
func WithRunInfo(ctx context.Context, ri RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, ri)
}

// RunInfoFrom extracts run identity attached by the engine.
func RunInfoFrom(ctx context.Context) (RunInfo, bool) {
	ri, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return ri, ok
}
