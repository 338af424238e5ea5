package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/factorkit/core"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if s.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", s.Name())
	}

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) error = %v, want store not-found", err)
	}

	if err := s.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}

	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after Delete error = %v, want store not-found", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "ephemeral", []byte("x"), 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := s.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("Get before expiry error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "ephemeral"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after expiry error = %v, want store not-found", err)
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := s.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("BatchGet() returned %d entries, want 2 (missing key skipped)", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}

func TestMemoryStore_SortedSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	// 同分成员 b/c：按 member 升序
	for member, score := range map[string]float64{"a": 3, "b": 1, "c": 1, "d": 2} {
		if err := s.ZAdd(ctx, "topn", score, member); err != nil {
			t.Fatalf("ZAdd() error = %v", err)
		}
	}

	got, err := s.ZRange(ctx, "topn", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	want := []string{"a", "d", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ZRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	top2, err := s.ZRange(ctx, "topn", 0, 1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	if len(top2) != 2 || top2[0] != "a" || top2[1] != "d" {
		t.Errorf("ZRange(0,1) = %v, want [a d]", top2)
	}

	score, err := s.ZScore(ctx, "topn", "d")
	if err != nil {
		t.Fatalf("ZScore() error = %v", err)
	}
	if score != 2 {
		t.Errorf("ZScore(d) = %v, want 2", score)
	}
	if _, err := s.ZScore(ctx, "topn", "zzz"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(zzz) error = %v, want store not-found", err)
	}

	empty, err := s.ZRange(ctx, "nosuch", 0, -1)
	if err != nil {
		t.Fatalf("ZRange(nosuch) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ZRange(nosuch) = %v, want empty", empty)
	}
}
