package store

import (
	"context"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "col", "a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.Put(ctx, "col", "b", []byte(`{"x":2}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, err := m.Get(ctx, "col", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != `{"x":1}` {
		t.Errorf("get value = %s, want {\"x\":1}", v)
	}

	all, err := m.GetAll(ctx, "col")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("get all len = %d, want 2", len(all))
	}

	if err := m.Delete(ctx, "col", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	v, err = m.Get(ctx, "col", "a")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if v != nil {
		t.Errorf("deleted key still present: %s", v)
	}

	if err := m.Clear(ctx, "col"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, _ = m.GetAll(ctx, "col")
	if len(all) != 0 {
		t.Errorf("collection not empty after clear: %d entries", len(all))
	}
}

func TestMemoryGetMissingKey(t *testing.T) {
	m := NewMemory()
	v, err := m.Get(context.Background(), "none", "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != nil {
		t.Errorf("missing key returned %s, want nil", v)
	}
}

func TestMemoryPutCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("original")
	if err := m.Put(ctx, "col", "k", buf); err != nil {
		t.Fatalf("put: %v", err)
	}
	buf[0] = 'X'

	v, _ := m.Get(ctx, "col", "k")
	if string(v) != "original" {
		t.Errorf("stored value mutated through caller slice: %s", v)
	}
}
