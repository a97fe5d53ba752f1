package flow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testCheckpoint(thread string, step int) Checkpoint {
	s := NewState()
	s.Variables["n"] = map[string]any{"step": step}
	return Checkpoint{
		WorkflowID: "wf",
		ThreadID:   thread,
		Step:       step,
		State:      s,
		Pending:    []string{"next"},
		CreatedAt:  time.Now(),
	}
}

func TestMemoryStore_AppendAndLatest(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.Append(ctx, testCheckpoint("t1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(ctx, testCheckpoint("t1", 2)); err != nil {
		t.Fatalf("append: %v", err)
	}

	cp, err := st.Latest(ctx, "wf", "t1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if cp.Step != 2 {
		t.Errorf("latest step = %d, want 2", cp.Step)
	}
}

func TestMemoryStore_SnapshotsDoNotAlias(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cp := testCheckpoint("t1", 1)
	if err := st.Append(ctx, cp); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Mutating the live state after persisting must not change history.
	cp.State.Variables["n"]["step"] = 999

	got, err := st.Latest(ctx, "wf", "t1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.State.Variables["n"]["step"] != 1 {
		t.Errorf("stored snapshot was mutated through the live state")
	}

	// Mutating a returned snapshot must not change history either.
	got.State.Variables["n"]["step"] = 777
	again, _ := st.Latest(ctx, "wf", "t1")
	if again.State.Variables["n"]["step"] != 1 {
		t.Errorf("stored snapshot was mutated through a read")
	}
}

func TestMemoryStore_HistoryNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := st.Append(ctx, testCheckpoint("t1", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	cps, err := st.History(ctx, "wf", "t1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(cps) != 3 {
		t.Fatalf("len = %d", len(cps))
	}
	if cps[0].Step != 3 || cps[2].Step != 1 {
		t.Errorf("order = %d,%d,%d, want newest first", cps[0].Step, cps[1].Step, cps[2].Step)
	}
}

func TestMemoryStore_MissingThread(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if _, err := st.Latest(ctx, "wf", "ghost"); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("latest err = %v, want ErrNoCheckpoint", err)
	}
	if _, err := st.History(ctx, "wf", "ghost"); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("history err = %v, want ErrNoCheckpoint", err)
	}
	if _, err := st.Inject(ctx, "wf", "ghost", Update{}); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("inject err = %v, want ErrNoCheckpoint", err)
	}
}

func TestMemoryStore_InjectAppendsRevisedSnapshot(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if err := st.Append(ctx, testCheckpoint("t1", 5)); err != nil {
		t.Fatalf("append: %v", err)
	}

	cp, err := st.Inject(ctx, "wf", "t1", Update{HumanFeedback: StringPtr("yes")})
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	if cp.State.HumanFeedback != "yes" {
		t.Errorf("injected feedback missing: %q", cp.State.HumanFeedback)
	}
	if cp.Step != 5 {
		t.Errorf("inject must keep the step index, got %d", cp.Step)
	}

	cps, _ := st.History(ctx, "wf", "t1")
	if len(cps) != 2 {
		t.Errorf("history len = %d, want append-only revision", len(cps))
	}
}

func TestMemoryStore_ThreadIsolation(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if err := st.Append(ctx, testCheckpoint("t1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Append(ctx, testCheckpoint("t2", 7)); err != nil {
		t.Fatalf("append: %v", err)
	}

	cp1, _ := st.Latest(ctx, "wf", "t1")
	cp2, _ := st.Latest(ctx, "wf", "t2")
	if cp1.Step != 1 || cp2.Step != 7 {
		t.Errorf("threads leaked into each other: %d, %d", cp1.Step, cp2.Step)
	}
}
