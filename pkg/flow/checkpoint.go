package flow

import (
	"context"
	"sync"
	"time"
)

// Checkpoint is one immutable snapshot in a thread's append-only history.
// Pending lists the node ids waiting to execute next; a suspended run has
// its interrupt node here.
type Checkpoint struct {
	WorkflowID string    `json:"workflow_id"`
	ThreadID   string    `json:"thread_id"`
	Step       int       `json:"step"`
	State      *State    `json:"state"`
	Pending    []string  `json:"pending"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists checkpoints keyed by (workflow id, thread id). Writes for
// one thread id are strictly ordered; distinct thread ids never block each
// other. History is never rewritten, only appended to.
type Store interface {
	// Append adds a checkpoint to the thread's history.
	Append(ctx context.Context, cp Checkpoint) error

	// Latest returns the most recently appended checkpoint for the thread,
	// or ErrNoCheckpoint.
	Latest(ctx context.Context, workflowID, threadID string) (Checkpoint, error)

	// History returns the thread's checkpoints newest-first.
	History(ctx context.Context, workflowID, threadID string) ([]Checkpoint, error)

	// Inject merges an update into the latest snapshot without executing
	// any node, appending the revised snapshot as a new checkpoint. Resume
	// uses it to deliver human feedback.
	Inject(ctx context.Context, workflowID, threadID string, u Update) (Checkpoint, error)
}

// MemoryStore is the in-process Store. Each thread owns its own log and
// lock, so concurrent threads of the same workflow never contend.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string]*threadLog
}

type threadLog struct {
	mu  sync.Mutex
	cps []Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: map[string]*threadLog{}}
}

func (s *MemoryStore) thread(workflowID, threadID string) *threadLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := workflowID + "\x00" + threadID
	t, ok := s.threads[key]
	if !ok {
		t = &threadLog{}
		s.threads[key] = t
	}
	return t
}

func (s *MemoryStore) Append(ctx context.Context, cp Checkpoint) error {
	t := s.thread(cp.WorkflowID, cp.ThreadID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cps = append(t.cps, snapshot(cp))
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context, workflowID, threadID string) (Checkpoint, error) {
	t := s.thread(workflowID, threadID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.cps) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return snapshot(t.cps[len(t.cps)-1]), nil
}

func (s *MemoryStore) History(ctx context.Context, workflowID, threadID string) ([]Checkpoint, error) {
	t := s.thread(workflowID, threadID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.cps) == 0 {
		return nil, ErrNoCheckpoint
	}
	out := make([]Checkpoint, 0, len(t.cps))
	for i := len(t.cps) - 1; i >= 0; i-- {
		out = append(out, snapshot(t.cps[i]))
	}
	return out, nil
}

func (s *MemoryStore) Inject(ctx context.Context, workflowID, threadID string, u Update) (Checkpoint, error) {
	t := s.thread(workflowID, threadID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.cps) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	cp := snapshot(t.cps[len(t.cps)-1])
	Apply(cp.State, u)
	cp.CreatedAt = time.Now()
	t.cps = append(t.cps, snapshot(cp))
	return cp, nil
}

// snapshot deep-copies a checkpoint so stored history and returned values
// never alias live state.
func snapshot(cp Checkpoint) Checkpoint {
	out := cp
	if cp.State != nil {
		out.State = cp.State.Clone()
	}
	out.Pending = append([]string(nil), cp.Pending...)
	return out
}
