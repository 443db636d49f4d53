package storage

import (
	"testing"

	"chorddht/internal/domain"
	"chorddht/internal/logger"
)

func newTestStorage(t *testing.T) (*Memory, domain.Space) {
	t.Helper()
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewMemory(&logger.NopLogger{}, sp), sp
}

func TestMemoryPutGet(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := s.Put("k1", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := s.Get("k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "v1" {
		t.Fatalf("expected v1, got %s", v)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	s, _ := newTestStorage(t)
	if _, err := s.Get("missing"); err != domain.ErrResourceNotFound {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	s, _ := newTestStorage(t)
	s.Put("k1", "v1")
	if err := s.Delete("k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get("k1"); err != domain.ErrResourceNotFound {
		t.Fatal("expected key to be gone after delete")
	}
	if err := s.Delete("k1"); err != nil {
		t.Fatalf("deleting an absent key should be a no-op, got error: %v", err)
	}
}

func TestMemoryBetweenAndTake(t *testing.T) {
	s, sp := newTestStorage(t)
	s.Put("alpha", "1")
	s.Put("beta", "2")
	s.Put("gamma", "3")

	lo := sp.Zero()
	hi := sp.FromUint64(0xFFFF)
	got := s.Between(lo, hi)
	taken := s.Take(lo, hi)
	if len(got) != len(taken) {
		t.Fatalf("Between and Take should agree on membership before mutation: %d vs %d", len(got), len(taken))
	}
	for k := range taken {
		if _, err := s.Get(k); err != domain.ErrResourceNotFound {
			t.Fatalf("key %q should have been removed by Take", k)
		}
	}
}
