package question

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(store.NewMemory(), zerolog.Nop())
}

func TestRegistryAddAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	if err := r.AddSeen(ctx, "physiology", "renal", []string{"q1", "q2"}); err != nil {
		t.Fatalf("add seen: %v", err)
	}
	if err := r.AddSeen(ctx, "physiology", "renal", []string{"q2", "q3"}); err != nil {
		t.Fatalf("add seen union: %v", err)
	}

	set, err := r.GetSeen(ctx, "physiology", "renal")
	if err != nil {
		t.Fatalf("get seen: %v", err)
	}
	if len(set) != 3 {
		t.Errorf("seen set size = %d, want 3 (union)", len(set))
	}
	for _, id := range []string{"q1", "q2", "q3"} {
		if _, ok := set[id]; !ok {
			t.Errorf("seen set missing %s", id)
		}
	}
}

func TestRegistryTopicsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	if err := r.AddSeen(ctx, "physiology", "renal", []string{"q1"}); err != nil {
		t.Fatalf("add seen: %v", err)
	}

	set, err := r.GetSeen(ctx, "physiology", "cardiac")
	if err != nil {
		t.Fatalf("get seen: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("cardiac set should be empty, got %d", len(set))
	}

	set, err = r.GetSeen(ctx, "anatomy", "renal")
	if err != nil {
		t.Fatalf("get seen: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("other subject set should be empty, got %d", len(set))
	}
}

func TestRegistryClear(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	if err := r.AddSeen(ctx, "physiology", "renal", []string{"q1", "q2"}); err != nil {
		t.Fatalf("add seen: %v", err)
	}
	if err := r.ClearSeen(ctx, "physiology", "renal"); err != nil {
		t.Fatalf("clear seen: %v", err)
	}

	set, err := r.GetSeen(ctx, "physiology", "renal")
	if err != nil {
		t.Fatalf("get seen: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("seen set should be empty after clear, got %d", len(set))
	}
}
