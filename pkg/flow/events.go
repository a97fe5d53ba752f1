package flow

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a lifecycle event emitted during a run.
type EventType string

const (
	EventWorkflowStart     EventType = "workflow_start"
	EventWorkflowEnd       EventType = "workflow_end"
	EventNodeStart         EventType = "node_start"
	EventNodeEnd           EventType = "node_end"
	EventToken             EventType = "token"
	EventToolCall          EventType = "tool_call"
	EventToolResult        EventType = "tool_result"
	EventStateUpdate       EventType = "state_update"
	EventHumanInputRequest EventType = "human_input_request"
	EventCheckpoint        EventType = "checkpoint"
	EventError             EventType = "error"
)

// Event is one entry in the per-run event sequence.
type Event struct {
	Type      EventType      `json:"type"`
	NodeID    string         `json:"node_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Observer receives events synchronously at the point of emission.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc adapts a plain function into an Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Stream fans emitted events out to registered observers, in registration
// order. A panicking observer is logged and skipped; it never aborts the
// run or starves other observers.
type Stream struct {
	mu        sync.Mutex
	observers map[int]Observer
	order     []int
	nextID    int
	log       *slog.Logger
}

// NewStream returns an empty stream logging observer panics to log.
// A nil logger falls back to slog.Default.
func NewStream(log *slog.Logger) *Stream {
	if log == nil {
		log = slog.Default()
	}
	return &Stream{observers: map[int]Observer{}, log: log}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (s *Stream) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers the event to every observer. The timestamp is stamped here
// when the caller left it zero.
func (s *Stream) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.mu.Lock()
	obs := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		obs = append(obs, s.observers[id])
	}
	s.mu.Unlock()
	for _, o := range obs {
		s.deliver(o, e)
	}
}

func (s *Stream) deliver(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("observer panicked", "event", e.Type, "panic", r)
		}
	}()
	o.OnEvent(e)
}

// MultiObserver fans one subscription out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, o := range m {
		o.OnEvent(e)
	}
}

// LogObserver writes every event to a structured logger at debug level.
type LogObserver struct {
	log *slog.Logger
}

func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) OnEvent(e Event) {
	o.log.Debug("workflow event", "type", e.Type, "node", e.NodeID)
}

// Recorder collects every event it sees, in order. Used by Run to return
// the run's full event trace and by tests to assert on emission order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ByType filters the recorded events down to one type.
func (r *Recorder) ByType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
