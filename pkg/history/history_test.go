package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

func newTestRun(items int) *Run {
	run := New(
		layout.ContentProfile{ItemCount: items, GroupCount: 2},
		oracle.DefaultGeometry(),
		layout.DefaultRanges(),
		layout.Parameters{FontSizePx: 14, LineSpacing: 0.3, Columns: 2},
	)
	run.Outcome = "done"
	run.Final = layout.Parameters{FontSizePx: 22, LineSpacing: 0.45, Columns: 2}
	return run
}

func TestNewRun(t *testing.T) {
	run := newTestRun(40)

	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("run ID should be a valid UUID: %v", err)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if run.Profile.ItemCount != 40 {
		t.Errorf("Profile.ItemCount = %d, want 40", run.Profile.ItemCount)
	}
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close(ctx)

	run := newTestRun(40)
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != run.ID || got.Final != run.Final || got.Outcome != run.Outcome {
		t.Errorf("Get = %+v, want inserted run", got)
	}

	// Stored runs are copies: mutating the retrieved record must not
	// affect the store.
	got.Outcome = "mangled"
	again, _ := store.Get(ctx, run.ID)
	if again.Outcome != "done" {
		t.Error("store should hold its own copy of the run")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), uuid.NewString()); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var ids []string
	for i := 0; i < 5; i++ {
		run := newTestRun(10 + i)
		run.Message = fmt.Sprintf("run %d", i)
		if err := store.Insert(ctx, run); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, run.ID)
	}

	// Newest first.
	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("List returned %d runs, want 5", len(runs))
	}
	for i, run := range runs {
		if want := ids[len(ids)-1-i]; run.ID != want {
			t.Errorf("runs[%d].ID = %s, want %s", i, run.ID, want)
		}
	}

	// Limit applies.
	runs, err = store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("List(2) returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[4] || runs[1].ID != ids[3] {
		t.Error("List(2) should return the two newest runs")
	}
}

func TestMemoryStoreReinsertKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a, b := newTestRun(10), newTestRun(20)
	store.Insert(ctx, a)
	store.Insert(ctx, b)

	// Re-inserting an existing run updates it in place.
	a.Message = "updated"
	store.Insert(ctx, a)

	runs, _ := store.List(ctx, 0)
	if len(runs) != 2 {
		t.Fatalf("List returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != b.ID {
		t.Error("update must not move a run to the front of the list")
	}

	got, _ := store.Get(ctx, a.ID)
	if got.Message != "updated" {
		t.Errorf("Message = %q, want updated", got.Message)
	}
}
