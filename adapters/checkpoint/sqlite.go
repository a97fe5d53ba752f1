// Package checkpoint provides the file-backed checkpoint store: an
// append-only SQLite log keyed by (workflow id, thread id), so suspended
// runs survive process restarts.
package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"loom/pkg/flow"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	workflow_id TEXT NOT NULL,
	thread_id   TEXT NOT NULL,
	step        INTEGER NOT NULL,
	state       TEXT NOT NULL,
	pending     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_thread
	ON checkpoints (workflow_id, thread_id, seq);
`

// SQLiteStore implements flow.Store on a SQLite file. SQLite serializes
// writers, which satisfies the per-thread ordering requirement; reads of
// other threads are never blocked for long thanks to WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Append(ctx context.Context, cp flow.Checkpoint) error {
	state, pending, err := encode(cp)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (workflow_id, thread_id, step, state, pending, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.WorkflowID, cp.ThreadID, cp.Step, state, pending, cp.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, workflowID, threadID string) (flow.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT workflow_id, thread_id, step, state, pending, created_at
		 FROM checkpoints WHERE workflow_id = ? AND thread_id = ?
		 ORDER BY seq DESC LIMIT 1`,
		workflowID, threadID)
	cp, err := scan(row)
	if err == sql.ErrNoRows {
		return flow.Checkpoint{}, flow.ErrNoCheckpoint
	}
	return cp, err
}

func (s *SQLiteStore) History(ctx context.Context, workflowID, threadID string) ([]flow.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT workflow_id, thread_id, step, state, pending, created_at
		 FROM checkpoints WHERE workflow_id = ? AND thread_id = ?
		 ORDER BY seq DESC`,
		workflowID, threadID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []flow.Checkpoint
	for rows.Next() {
		cp, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, flow.ErrNoCheckpoint
	}
	return out, nil
}

// Inject rewrites nothing: the revised snapshot is appended as a fresh row
// inside one transaction, keeping history append-only.
func (s *SQLiteStore) Inject(ctx context.Context, workflowID, threadID string, u flow.Update) (flow.Checkpoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return flow.Checkpoint{}, fmt.Errorf("begin inject: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT workflow_id, thread_id, step, state, pending, created_at
		 FROM checkpoints WHERE workflow_id = ? AND thread_id = ?
		 ORDER BY seq DESC LIMIT 1`,
		workflowID, threadID)
	cp, err := scan(row)
	if err == sql.ErrNoRows {
		return flow.Checkpoint{}, flow.ErrNoCheckpoint
	}
	if err != nil {
		return flow.Checkpoint{}, err
	}

	flow.Apply(cp.State, u)
	cp.CreatedAt = time.Now()

	state, pending, err := encode(cp)
	if err != nil {
		return flow.Checkpoint{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkpoints (workflow_id, thread_id, step, state, pending, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.WorkflowID, cp.ThreadID, cp.Step, state, pending, cp.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return flow.Checkpoint{}, fmt.Errorf("append injected checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return flow.Checkpoint{}, fmt.Errorf("commit inject: %w", err)
	}
	return cp, nil
}

func encode(cp flow.Checkpoint) (state, pending []byte, err error) {
	state, err = json.Marshal(cp.State)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal state: %w", err)
	}
	pending, err = json.Marshal(cp.Pending)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal pending: %w", err)
	}
	return state, pending, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (flow.Checkpoint, error) {
	var cp flow.Checkpoint
	var state, pending []byte
	var createdAt string
	if err := row.Scan(&cp.WorkflowID, &cp.ThreadID, &cp.Step, &state, &pending, &createdAt); err != nil {
		return flow.Checkpoint{}, err
	}
	cp.State = flow.NewState()
	if err := json.Unmarshal(state, cp.State); err != nil {
		return flow.Checkpoint{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if err := json.Unmarshal(pending, &cp.Pending); err != nil {
		return flow.Checkpoint{}, fmt.Errorf("unmarshal pending: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		cp.CreatedAt = t
	}
	return cp, nil
}
