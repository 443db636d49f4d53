package scheduler_test

import (
	"context"
	"testing"
	"time"

	"chorddht/internal/chord"
	"chorddht/internal/config"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/scheduler"
	"chorddht/internal/storage"
	"chorddht/internal/transport"
	"chorddht/internal/wire"
)

// loopbackTransport answers the "node" op for any address with itself,
// just enough for the scheduler's maintenance ticks to run against a
// single-node ring without a real network.
type loopbackTransport struct{ n *chord.Node }

func (l *loopbackTransport) Send(ctx context.Context, addr string, op wire.Op, req, resp any) error {
	switch op {
	case wire.OpNode:
		self := l.n.Self()
		*resp.(*wire.NodeResponse) = wire.NodeResponse{Self: wire.NodeHandle{Addr: self.Addr, ID: self.ID.ToHexString(false)}}
		return nil
	default:
		*resp.(*wire.GetPredecessorResponse) = wire.GetPredecessorResponse{}
		return nil
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	self := &domain.Node{Addr: "node-a:9000"}
	self.ID = sp.Bucketize(self.Addr)
	store := storage.NewMemory(&logger.NopLogger{}, sp)

	lb := &loopbackTransport{}
	n := chord.New(self, sp, transport.NewClient(lb), store, &logger.NopLogger{})
	lb.n = n
	if err := n.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mcfg := config.MaintenanceConfig{Interval: 10 * time.Millisecond}

	s := scheduler.New(n, &logger.NopLogger{}, mcfg)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	// Let a few ticks fire, then cancel; if the goroutine doesn't obey
	// ctx.Done() this test would need to hang forever to fail, so we
	// just verify cancellation doesn't panic or deadlock the caller.
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
}
