package simulator_test

import (
	"context"
	"testing"
	"time"

	"chorddht/internal/config"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/simulator"
)

func testMaintenance() config.MaintenanceConfig {
	return config.MaintenanceConfig{Interval: 5 * time.Millisecond}
}

func TestBuildConverges(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ring, err := simulator.Build(ctx, sp, 5, testMaintenance(), &logger.NopLogger{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		allConverged := true
		for _, st := range ring.Snapshot() {
			if st.Successor == "" || st.Predecessor == "" {
				allConverged = false
				break
			}
		}
		if allConverged {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	for _, st := range ring.Snapshot() {
		if st.Successor == "" {
			t.Errorf("node %s never acquired a successor", st.Addr)
		}
		if st.Predecessor == "" {
			t.Errorf("node %s never acquired a predecessor", st.Addr)
		}
	}
}

func TestBuildPutGetRoundTrip(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ring, err := simulator.Build(ctx, sp, 4, testMaintenance(), &logger.NopLogger{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	nodes := ring.Nodes()
	var any string
	for addr := range nodes {
		any = addr
		break
	}
	n := nodes[any]

	putCtx, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := n.Put(putCtx, "hello", "world"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	for addr, other := range nodes {
		getCtx, cancel3 := context.WithTimeout(context.Background(), time.Second)
		val, found, err := other.Get(getCtx, "hello")
		cancel3()
		if err != nil {
			t.Fatalf("Get via %s: %v", addr, err)
		}
		if !found || val != "world" {
			t.Fatalf("Get via %s: found=%v val=%q, want world", addr, found, val)
		}
	}
}
