package chord_test

import (
	"context"
	"testing"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
)

func TestStabilizeAndNotifyConverge(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	reg := newRegistry()
	ctx := context.Background()

	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := newTestNode(t, reg, sp, "node-b:9000")
	if err := b.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}

	nodes := []*chord.Node{a, b}
	for round := 0; round < 10; round++ {
		for _, n := range nodes {
			if err := n.Stabilize(ctx); err != nil {
				t.Fatalf("Stabilize(%s): %v", n.Self().Addr, err)
			}
			if err := n.NotifySuccessor(ctx); err != nil {
				t.Fatalf("NotifySuccessor(%s): %v", n.Self().Addr, err)
			}
		}
	}

	// Once converged, a's successor and b's predecessor should point at
	// each other (a 2-node ring has only one possible stable shape).
	if succ := a.Successor(); succ == nil || !succ.Equal(b.Self()) {
		t.Fatalf("expected a.Successor() == b, got %v", succ)
	}
	if pred := b.Predecessor(); pred == nil || !pred.Equal(a.Self()) {
		t.Fatalf("expected b.Predecessor() == a, got %v", pred)
	}
	if succ := b.Successor(); succ == nil || !succ.Equal(a.Self()) {
		t.Fatalf("expected b.Successor() == a, got %v", succ)
	}
	if pred := a.Predecessor(); pred == nil || !pred.Equal(b.Self()) {
		t.Fatalf("expected a.Predecessor() == b, got %v", pred)
	}
}

func TestFixFingersPopulatesTable(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	reg := newRegistry()
	ctx := context.Background()

	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := newTestNode(t, reg, sp, "node-b:9000")
	if err := b.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}

	nodes := []*chord.Node{a, b}
	converge(ctx, nodes)

	for i := 0; i < 16; i++ {
		if a.Finger(i) == nil {
			t.Fatalf("expected finger %d to be populated after fix_fingers rounds", i)
		}
	}
}

func TestCheckPredecessorClearsDeadPredecessor(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	reg := newRegistry()
	ctx := context.Background()

	a := newTestNode(t, reg, sp, "node-a:9000")
	if err := a.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b := newTestNode(t, reg, sp, "node-b:9000")
	if err := b.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}

	nodes := []*chord.Node{a, b}
	converge(ctx, nodes)

	if pred := b.Predecessor(); pred == nil || !pred.Equal(a.Self()) {
		t.Fatalf("expected b's predecessor to be a before removal, got %v", pred)
	}

	// Simulate a's disappearance from the ring without a graceful
	// shutdown: remove it from the registry so pings to it fail.
	reg.remove(a.Self().Addr)

	if err := b.CheckPredecessor(ctx); err == nil {
		t.Fatal("expected CheckPredecessor to report the unreachable predecessor")
	}
	if pred := b.Predecessor(); pred != nil {
		t.Fatalf("expected b's predecessor to be cleared, got %v", pred)
	}
}
