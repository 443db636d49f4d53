package chord_test

import (
	"context"
	"errors"
	"testing"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
)

func testSpace(t *testing.T) domain.Space {
	t.Helper()
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return sp
}

func TestCreateSingleNodeRing(t *testing.T) {
	sp := testSpace(t)
	reg := newRegistry()
	n := newTestNode(t, reg, sp, "node-a:9000")

	if err := n.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !n.IsActive() {
		t.Fatal("expected node to be active after Create")
	}
	if succ := n.Successor(); succ == nil || !succ.Equal(n.Self()) {
		t.Fatalf("expected self-successor, got %v", succ)
	}
	if err := n.Create(); !errors.Is(err, chord.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive on second Create, got %v", err)
	}
}

func TestJoinRejectsRingSizeMismatch(t *testing.T) {
	sp16 := testSpace(t)
	sp8, err := domain.NewSpace(8, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}

	reg := newRegistry()
	bootstrap := newTestNode(t, reg, sp16, "node-a:9000")
	if err := bootstrap.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	joiner := newTestNode(t, reg, sp8, "node-b:9000")
	err = joiner.Join(context.Background(), bootstrap.Self().Addr)
	if !errors.Is(err, chord.ErrRingSizeMismatch) {
		t.Fatalf("expected ErrRingSizeMismatch, got %v", err)
	}
}

func TestJoinResolvesSuccessor(t *testing.T) {
	sp := testSpace(t)
	reg := newRegistry()
	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b := newTestNode(t, reg, sp, "node-b:9000")
	if err := b.Join(context.Background(), a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !b.IsActive() {
		t.Fatal("expected joiner to be active")
	}
	if succ := b.Successor(); succ == nil {
		t.Fatal("expected joiner to have a successor")
	}
}

func TestPutGetRoundTripOnSingleNode(t *testing.T) {
	sp := testSpace(t)
	reg := newRegistry()
	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	if err := a.Put(ctx, "hello", "world"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, found, err := a.Get(ctx, "hello")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || value != "world" {
		t.Fatalf("expected (world, true), got (%q, %v)", value, found)
	}

	_, found, err = a.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if found {
		t.Fatal("expected missing key to not be found")
	}
}

func TestShutdownHandsOffKeysToSuccessor(t *testing.T) {
	sp := testSpace(t)
	reg := newRegistry()
	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	b := newTestNode(t, reg, sp, "node-b:9000")
	if err := b.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}
	// One stabilize/notify pass per node leaves a's successor on a;
	// converge then settles a's successor onto b and b's predecessor
	// onto a.
	if err := a.Stabilize(ctx); err != nil {
		t.Fatalf("Stabilize: %v", err)
	}
	if err := a.NotifySuccessor(ctx); err != nil {
		t.Fatalf("NotifySuccessor: %v", err)
	}
	if err := b.Stabilize(ctx); err != nil {
		t.Fatalf("Stabilize: %v", err)
	}
	if err := b.NotifySuccessor(ctx); err != nil {
		t.Fatalf("NotifySuccessor: %v", err)
	}
	converge(ctx, []*chord.Node{a, b})

	for i := 0; i < 50; i++ {
		if err := a.Put(ctx, "k"+string(rune('0'+i%10)), "v"); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if a.IsActive() {
		t.Fatal("expected node to be inactive after Shutdown")
	}
	for i := 0; i < 10; i++ {
		key := "k" + string(rune('0'+i))
		if v, err := b.Storage().Get(key); err != nil || v != "v" {
			t.Fatalf("expected successor to hold %s after handoff, got (%q, %v)", key, v, err)
		}
	}
}
