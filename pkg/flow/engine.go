package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunStatus is the lifecycle state of one run.
type RunStatus string

const (
	StatusReady     RunStatus = "ready"
	StatusRunning   RunStatus = "running"
	StatusSuspended RunStatus = "suspended"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Result is the outcome of a Run or Resume call.
type Result struct {
	Status   RunStatus
	Output   string
	ThreadID string
	Steps    int
	State    *State
	Events   []Event
	Err      error
}

// Snapshot is the externally visible view of a thread's latest checkpoint.
type Snapshot struct {
	ThreadID  string                    `json:"thread_id"`
	Step      int                       `json:"step"`
	Variables map[string]map[string]any `json:"variables"`
	Pending   []string                  `json:"next_pending_nodes"`
}

// Engine drives one compiled graph. The step loop is single-threaded per
// thread id; distinct thread ids may run concurrently, sharing only the
// checkpoint store.
type Engine struct {
	graph *CompiledGraph
	store Store
	log   *slog.Logger
}

// EngineOption adjusts engine construction.
type EngineOption func(*Engine)

// WithStore selects the checkpoint store. Defaults to the services' store,
// then to a fresh in-memory store.
func WithStore(s Store) EngineOption {
	return func(e *Engine) { e.store = s }
}

// NewEngine returns an engine for the compiled graph.
func NewEngine(g *CompiledGraph, opts ...EngineOption) *Engine {
	e := &Engine{graph: g, log: g.Log}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		if g.Services != nil && g.Services.Store != nil {
			e.store = g.Services.Store
		} else {
			e.store = NewMemoryStore()
		}
	}
	// Subgraph behaviors reach the store through services.
	if g.Services != nil && g.Services.Store == nil {
		g.Services.Store = e.store
	}
	return e
}

// Run executes the graph from its entry node until completion, suspension,
// or failure. An empty thread id gets a fresh one. Inputs seed the entry
// node's variable namespace. The returned error is non-nil only when the
// run FAILED; a SUSPENDED run returns normally with its thread id.
func (e *Engine) Run(ctx context.Context, threadID string, inputs map[string]any) (*Result, error) {
	if threadID == "" {
		threadID = newID()
	}
	rec := &Recorder{}
	unsub := e.graph.Stream.Subscribe(rec)
	defer unsub()

	ctx = WithRunInfo(ctx, RunInfo{WorkflowID: e.graph.WorkflowID, ThreadID: threadID})
	st := NewState()
	if len(inputs) > 0 {
		ns := make(map[string]any, len(inputs))
		for k, v := range inputs {
			ns[k] = v
		}
		st.Variables[e.graph.Entry] = ns
	}
	e.emit(EventWorkflowStart, "", map[string]any{
		"workflow_id": e.graph.WorkflowID,
		"thread_id":   threadID,
	})
	res := e.loop(ctx, threadID, st, e.graph.Entry, 0)
	res.Events = rec.Events()
	return res, res.Err
}

// Resume continues a SUSPENDED run: the feedback is injected into the
// latest checkpoint through the store, and the loop continues at the
// pending interrupt node, which consumes the feedback.
func (e *Engine) Resume(ctx context.Context, threadID, feedback string) (*Result, error) {
	latest, err := e.store.Latest(ctx, e.graph.WorkflowID, threadID)
	if err != nil {
		return nil, err
	}
	if len(latest.Pending) == 0 {
		return nil, fmt.Errorf("%w: thread %q", ErrNotSuspended, threadID)
	}
	cp, err := e.store.Inject(ctx, e.graph.WorkflowID, threadID, Update{HumanFeedback: StringPtr(feedback)})
	if err != nil {
		return nil, fmt.Errorf("inject feedback: %w", err)
	}

	rec := &Recorder{}
	unsub := e.graph.Stream.Subscribe(rec)
	defer unsub()

	ctx = WithRunInfo(ctx, RunInfo{WorkflowID: e.graph.WorkflowID, ThreadID: threadID})
	res := e.loop(ctx, threadID, cp.State.Clone(), cp.Pending[0], cp.Step)
	res.Events = rec.Events()
	return res, res.Err
}

// Stream runs the graph while delivering events incrementally on the
// returned channel. The channel closes after the terminating workflow-end
// event. The final Result is delivered through the done callback when one
// is supplied.
func (e *Engine) Stream(ctx context.Context, threadID string, inputs map[string]any, done func(*Result)) <-chan Event {
	ch := make(chan Event, 128)
	unsub := e.graph.Stream.Subscribe(ObserverFunc(func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}))
	go func() {
		defer close(ch)
		defer unsub()
		res, _ := e.Run(ctx, threadID, inputs)
		if done != nil {
			done(res)
		}
	}()
	return ch
}

// StateOf returns the thread's latest snapshot: variables plus the nodes
// still pending execution.
func (e *Engine) StateOf(ctx context.Context, threadID string) (*Snapshot, error) {
	cp, err := e.store.Latest(ctx, e.graph.WorkflowID, threadID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ThreadID:  threadID,
		Step:      cp.Step,
		Variables: cp.State.Variables,
		Pending:   cp.Pending,
	}, nil
}

// History returns the thread's checkpoints newest-first.
func (e *Engine) History(ctx context.Context, threadID string) ([]Checkpoint, error) {
	return e.store.History(ctx, e.graph.WorkflowID, threadID)
}

func (e *Engine) loop(ctx context.Context, threadID string, st *State, current string, step int) *Result {
	g := e.graph
	for {
		if current == End {
			return e.complete(threadID, st, step)
		}
		if step >= g.StepBound {
			return e.fail(threadID, st, current, step,
				fmt.Errorf("%w: %d steps reached", ErrStepBound, g.StepBound))
		}
		b, ok := g.Behaviors[current]
		if !ok {
			return e.fail(threadID, st, current, step,
				fmt.Errorf("%w: %q", ErrNodeNotFound, current))
		}

		// Interrupt-gated nodes pause before execution until feedback is
		// injected by Resume.
		if g.Interrupts[current] && st.HumanFeedback == "" {
			if err := e.persist(ctx, threadID, st, step, []string{current}); err != nil {
				return e.fail(threadID, st, current, step, err)
			}
			payload := map[string]any{"node_id": current}
			if ir, ok := b.(Interrupter); ok {
				for k, v := range ir.InterruptRequest(st) {
					payload[k] = v
				}
			}
			e.emit(EventHumanInputRequest, current, payload)
			e.log.Info("run suspended for human input",
				"workflow", g.WorkflowID, "thread", threadID, "node", current)
			return &Result{Status: StatusSuspended, ThreadID: threadID, Steps: step, State: st}
		}

		e.emit(EventNodeStart, current, map[string]any{"kind": b.Kind()})
		u, err := b.Execute(ctx, st)
		if err != nil {
			e.emit(EventError, current, map[string]any{"error": err.Error()})
			return e.fail(threadID, st, current, step,
				fmt.Errorf("node %q: %w", current, err))
		}
		Apply(st, u)
		e.emit(EventStateUpdate, current, nil)
		e.emit(EventNodeEnd, current, nil)
		step++

		if g.Terminals[current] {
			if err := e.persist(ctx, threadID, st, step, nil); err != nil {
				return e.fail(threadID, st, current, step, err)
			}
			return e.complete(threadID, st, step)
		}

		next, err := e.next(ctx, b, current, st)
		if err != nil {
			e.emit(EventError, current, map[string]any{"error": err.Error()})
			return e.fail(threadID, st, current, step, err)
		}
		var pending []string
		if next != End {
			pending = []string{next}
		}
		if err := e.persist(ctx, threadID, st, step, pending); err != nil {
			return e.fail(threadID, st, current, step, err)
		}
		current = next
	}
}

// next resolves the node after current: the registered router for
// router-bearing nodes, the compiled static edge otherwise.
func (e *Engine) next(ctx context.Context, b Behavior, current string, st *State) (string, error) {
	allowed, routed := e.graph.RouteMaps[current]
	if !routed {
		return e.graph.Static[current], nil
	}
	r, ok := b.(Router)
	if !ok {
		return "", fmt.Errorf("%w: node %q has no route function", ErrBadRoute, current)
	}
	id, err := r.Route(ctx, st)
	if err != nil {
		return "", fmt.Errorf("route from %q: %w", current, err)
	}
	if e.graph.Terminals[id] {
		return id, nil
	}
	if !allowed[id] {
		return "", fmt.Errorf("%w: node %q returned %q", ErrBadRoute, current, id)
	}
	return id, nil
}

func (e *Engine) persist(ctx context.Context, threadID string, st *State, step int, pending []string) error {
	cp := Checkpoint{
		WorkflowID: e.graph.WorkflowID,
		ThreadID:   threadID,
		Step:       step,
		State:      st,
		Pending:    pending,
		CreatedAt:  time.Now(),
	}
	if err := e.store.Append(ctx, cp); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	e.emit(EventCheckpoint, "", map[string]any{"step": step, "thread_id": threadID})
	return nil
}

func (e *Engine) complete(threadID string, st *State, steps int) *Result {
	out := st.FinalOutput
	if out == "" {
		if m, ok := st.LastMessage(); ok {
			out = m.Content
		}
	}
	e.emit(EventWorkflowEnd, "", map[string]any{
		"status": string(StatusCompleted),
		"output": out,
	})
	e.log.Info("run completed",
		"workflow", e.graph.WorkflowID, "thread", threadID, "steps", steps)
	return &Result{Status: StatusCompleted, Output: out, ThreadID: threadID, Steps: steps, State: st}
}

func (e *Engine) fail(threadID string, st *State, node string, steps int, err error) *Result {
	e.emit(EventWorkflowEnd, "", map[string]any{
		"status": string(StatusFailed),
		"error":  err.Error(),
	})
	e.log.Error("run failed",
		"workflow", e.graph.WorkflowID, "thread", threadID, "node", node, "error", err)
	return &Result{Status: StatusFailed, ThreadID: threadID, Steps: steps, State: st, Err: err}
}

func (e *Engine) emit(t EventType, node string, payload map[string]any) {
	e.graph.Stream.Emit(Event{Type: t, NodeID: node, Payload: payload})
}
