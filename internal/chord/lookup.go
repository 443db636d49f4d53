package chord

import (
	"context"

	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/telemetry/lookuptrace"
	"chorddht/internal/wire"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// FindSuccessor resolves the node responsible for target, i.e. the
// first node whose ID is >= target on the ring.
//
// hops is the number of RPC forwards already spent resolving this
// request before it reached this node; callers starting a fresh
// lookup pass 0. When the answer is already known locally — target
// falls in (self.ID, successor.ID], checked with a bucket equality
// check against the successor rather than a raw-key comparison, per
// the ring's resolved bucket-vs-bucket convention — FindSuccessor
// returns with hops unchanged, so a request resolved without ever
// leaving its origin node reports hops == 0.
func (n *Node) FindSuccessor(ctx context.Context, target domain.ID, hops int) (*domain.Node, int, error) {
	ctx, span := lookuptrace.StartHop(ctx, "find_successor", oteltrace.SpanKindInternal)
	defer span.End()

	if !n.IsActive() {
		return nil, hops, ErrNotActive
	}

	succ := n.Successor()
	if succ == nil {
		n.lgr.Error("find_successor: no successor known", logger.F("self", n.self.Addr))
		return nil, hops, ErrNoSuccessor
	}

	if domain.Between(target, n.self.ID, succ.ID) || target.Equal(succ.ID) {
		n.lgr.Debug("find_successor resolved locally",
			logger.F("target", target.ToHexString(false)),
			logger.F("successor", succ.Addr),
			logger.F("hops", hops),
		)
		return succ, hops, nil
	}

	np := n.closestPrecedingNode(target)
	if np.Equal(n.self) {
		// Nothing closer known than ourselves: fall back to our
		// successor rather than looping forever against ourselves.
		return succ, hops, nil
	}

	resp, err := n.rpc.FindSuccessor(ctx, np.Addr, wire.FindSuccessorRequest{
		TargetIDHex: target.ToHexString(false),
		Hops:        hops + 1,
	})
	if err != nil {
		n.lgr.Warn("find_successor: forward failed",
			logger.F("via", np.Addr),
			logger.F("err", err.Error()),
		)
		return nil, hops, err
	}

	resolved := &domain.Node{Addr: resp.Successor.Addr, ID: n.idFromHex(resp.Successor.ID)}
	return resolved, resp.Hops, nil
}

// closestPrecedingNode scans the finger table from the widest stride
// to the narrowest, returning the furthest known node that still
// strictly precedes target. It falls back to the successor list (which
// decays more slowly than stale fingers) and finally to self, the
// signal to the caller that it has no better candidate.
func (n *Node) closestPrecedingNode(target domain.ID) *domain.Node {
	n.mu.RLock()
	fingers := make([]*domain.Node, len(n.fingers))
	copy(fingers, n.fingers)
	n.mu.RUnlock()

	for i := len(fingers) - 1; i >= 0; i-- {
		f := fingers[i]
		if f != nil && domain.Between(f.ID, n.self.ID, target) {
			return f
		}
	}
	for _, s := range n.SuccessorList() {
		if s != nil && domain.Between(s.ID, n.self.ID, target) {
			return s
		}
	}
	return n.self
}

func (n *Node) idFromHex(hexStr string) domain.ID {
	id, err := n.sp.FromHexString(hexStr)
	if err != nil {
		// A peer sent an ID outside our identifier space: this is an
		// impossible state for a consistent ring and surfaces as a
		// zero ID rather than panicking the caller, so the peer is then
		// treated as sitting at bucket 0 in later Between/Equal checks.
		n.lgr.Error("received id outside of local identifier space", logger.F("hex", hexStr), logger.F("err", err.Error()))
		return n.sp.Zero()
	}
	return id
}
