package chord

import (
	"context"

	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/wire"
)

// Stabilize asks the current successor who it thinks its predecessor
// is, and adopts that node as our new successor if it lies strictly
// between us and our current successor — run unconditionally, even
// when the current successor is self, since that is exactly the case
// in which a ring-creator node discovers a newly joined peer. It then
// refreshes the local successor list from the (possibly updated)
// successor. Notify is a separate scheduled step (Node.NotifySuccessor),
// not run inline here, matching the scheduler's strict
// fix_fingers -> stabilize -> check_predecessor ordering.
func (n *Node) Stabilize(ctx context.Context) error {
	succ := n.Successor()
	if succ == nil {
		return ErrNoSuccessor
	}

	resp, err := n.rpc.GetPredecessor(ctx, succ.Addr)
	if err != nil {
		n.lgr.Warn("stabilize: successor unreachable, promoting next candidate",
			logger.F("successor", succ.Addr), logger.F("err", err.Error()))
		n.promoteSuccessor()
		return err
	}
	if resp.Predecessor != nil {
		x := &domain.Node{Addr: resp.Predecessor.Addr, ID: n.idFromHex(resp.Predecessor.ID)}
		if domain.Between(x.ID, n.self.ID, succ.ID) {
			n.setSuccessorHead(x)
			succ = x
		}
	}

	if err := n.refreshSuccessorList(ctx, succ); err != nil {
		n.lgr.Debug("stabilize: successor list refresh failed", logger.F("err", err.Error()))
	}
	return nil
}

// NotifySuccessor tells the current successor that this node may be
// its predecessor.
func (n *Node) NotifySuccessor(ctx context.Context) error {
	succ := n.Successor()
	if succ == nil {
		return ErrNoSuccessor
	}
	if succ.Equal(n.self) {
		// Single-node ring: notifying ourselves is handled directly
		// instead of round-tripping through the transport; it sets the
		// predecessor to self when none is known yet.
		n.HandleNotify(n.self)
		return nil
	}
	_, err := n.rpc.Notify(ctx, succ.Addr, wire.NotifyRequest{Candidate: toHandle(n.self)})
	return err
}

// HandleNotify is the server-side handler for the notify RPC:
// candidate claims to be our predecessor. We adopt it if we have no
// predecessor, our predecessor is ourselves, candidate lies strictly
// between our current predecessor and us, or our predecessor does not
// answer a node call.
func (n *Node) HandleNotify(candidate *domain.Node) {
	pred := n.Predecessor()
	adopt := pred == nil || pred.Equal(n.self) || domain.Between(candidate.ID, pred.ID, n.self.ID)
	if !adopt && !pred.Equal(candidate) {
		if _, err := n.rpc.Node(context.Background(), pred.Addr); err != nil {
			adopt = true
		}
	}
	if adopt {
		n.setPredecessor(candidate)
		n.lgr.Debug("notify: predecessor updated", logger.F("predecessor", candidate.Addr))
	}
}

// FixFingers refreshes a single finger-table entry per call, cycling
// through the table so that a full pass completes over many scheduler
// ticks rather than blocking one tick on m lookups.
func (n *Node) FixFingers(ctx context.Context) error {
	n.mu.Lock()
	i := n.nextFinger
	n.nextFinger = (n.nextFinger + 1) % len(n.fingers)
	n.mu.Unlock()

	start := n.fingerStart(i)
	succ, _, err := n.FindSuccessor(ctx, start, 0)
	if err != nil {
		n.lgr.Debug("fix_fingers: lookup failed", logger.F("index", i), logger.F("err", err.Error()))
		return err
	}
	n.setFinger(i, succ)
	return nil
}

// CheckPredecessor pings the current predecessor and clears it if the
// ping fails, so a dead predecessor does not block future notify()
// calls from being accepted.
func (n *Node) CheckPredecessor(ctx context.Context) error {
	pred := n.Predecessor()
	if pred == nil || pred.Equal(n.self) {
		return nil
	}
	if _, err := n.rpc.Node(ctx, pred.Addr); err != nil {
		n.lgr.Warn("check_predecessor: predecessor unreachable, clearing", logger.F("predecessor", pred.Addr))
		n.clearPredecessorIf(pred)
		return err
	}
	return nil
}

// refreshSuccessorList pulls succ's own successor list and builds this
// node's list as [succ, succ's successors...], truncated/padded to the
// configured size.
func (n *Node) refreshSuccessorList(ctx context.Context, succ *domain.Node) error {
	size := n.sp.SuccListSize
	list := make([]*domain.Node, 0, size)
	list = append(list, succ)

	if !succ.Equal(n.self) {
		resp, err := n.rpc.GetSuccessorList(ctx, succ.Addr)
		if err != nil {
			// Keep at least the successor itself; the rest of the list
			// will catch up on a later tick.
			n.padSuccessorList(list)
			return err
		}
		for _, h := range resp.Successors {
			if len(list) >= size {
				break
			}
			if h == nil {
				continue
			}
			cand := &domain.Node{Addr: h.Addr, ID: n.idFromHex(h.ID)}
			if cand.Equal(n.self) {
				continue
			}
			list = append(list, cand)
		}
	}
	n.padSuccessorList(list)
	return nil
}

func (n *Node) padSuccessorList(list []*domain.Node) {
	size := n.sp.SuccListSize
	for len(list) < size {
		list = append(list, nil)
	}
	n.setSuccessorList(list[:size])
}

// setSuccessorHead replaces just the head of the successor list,
// keeping the rest until the next stabilize/refresh cycle overwrites
// it with fresher data.
func (n *Node) setSuccessorHead(node *domain.Node) {
	n.mu.Lock()
	if len(n.successorList) > 0 {
		n.successorList[0] = node
	}
	n.mu.Unlock()
}

// promoteSuccessor drops the (failed) head of the successor list and
// shifts the rest up, per the spec's atomic-list-replacement rule: the
// whole list is swapped in one step, never mutated entry by entry
// under a narrower lock.
func (n *Node) promoteSuccessor() {
	n.mu.Lock()
	if len(n.successorList) == 0 {
		n.mu.Unlock()
		return
	}
	next := make([]*domain.Node, len(n.successorList))
	copy(next, n.successorList[1:])
	n.successorList = next
	n.mu.Unlock()
}

func toHandle(nd *domain.Node) wire.NodeHandle {
	return wire.NodeHandle{Addr: nd.Addr, ID: nd.ID.ToHexString(false)}
}
