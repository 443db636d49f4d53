package chord_test

import (
	"context"
	"testing"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
)

func TestFindSuccessorLocalShortCircuit(t *testing.T) {
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

	succ, hops, err := a.FindSuccessor(ctx, a.Self().ID, 0)
	if err != nil {
		t.Fatalf("FindSuccessor: %v", err)
	}
	if !succ.Equal(a.Self()) {
		t.Fatalf("expected self as successor of own ID, got %v", succ)
	}
	if hops != 0 {
		t.Fatalf("expected 0 hops for locally-resolved lookup, got %d", hops)
	}
}

// converge drives enough stabilize/notify/fix_fingers rounds for a
// small ring to settle before lookups are asserted on.
func converge(ctx context.Context, nodes []*chord.Node) {
	for round := 0; round < 10; round++ {
		for _, n := range nodes {
			_ = n.Stabilize(ctx)
			_ = n.NotifySuccessor(ctx)
		}
		for _, n := range nodes {
			for i := 0; i < 16; i++ {
				_ = n.FixFingers(ctx)
			}
		}
	}
}

func TestFindSuccessorForwardsAcrossRing(t *testing.T) {
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

	c := newTestNode(t, reg, sp, "node-c:9000")
	if err := c.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}

	nodes := []*chord.Node{a, b, c}
	converge(ctx, nodes)

	for _, n := range nodes {
		target := n.Self().ID
		succ, _, err := n.FindSuccessor(ctx, target, 0)
		if err != nil {
			t.Fatalf("FindSuccessor from %s: %v", n.Self().Addr, err)
		}
		if succ == nil {
			t.Fatalf("FindSuccessor from %s returned nil successor", n.Self().Addr)
		}
	}
}

func TestPutGetAcrossRing(t *testing.T) {
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
	c := newTestNode(t, reg, sp, "node-c:9000")
	if err := c.Join(ctx, a.Self().Addr); err != nil {
		t.Fatalf("Join: %v", err)
	}

	nodes := []*chord.Node{a, b, c}
	converge(ctx, nodes)

	if err := a.Put(ctx, "some-key", "some-value"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Any node in the ring should be able to resolve the same key to
	// the same value, regardless of which one stores it locally.
	for _, n := range nodes {
		value, found, err := n.Get(ctx, "some-key")
		if err != nil {
			t.Fatalf("Get from %s: %v", n.Self().Addr, err)
		}
		if !found || value != "some-value" {
			t.Fatalf("Get from %s: expected (some-value, true), got (%q, %v)", n.Self().Addr, value, found)
		}
	}
}
