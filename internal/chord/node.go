// Package chord implements the Chord peer: ring state, find_successor,
// the stabilize/notify/fix_fingers/check_predecessor maintenance
// operations, and the create/join/shutdown lifecycle.
package chord

import (
	"sync"

	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/storage"
	"chorddht/internal/transport"
)

// Node holds one ring participant's mutable state. A single RWMutex
// guards {predecessor, fingers, successorList, nextFinger, active};
// find_successor and the maintenance operations do all of their remote
// RPC work outside the lock and only take it to publish the final
// result, so a slow or unreachable peer never blocks concurrent local
// reads (spec §5).
type Node struct {
	self  *domain.Node
	sp    domain.Space
	rpc   *transport.Client
	store storage.Storage
	lgr   logger.Logger

	mu            sync.RWMutex
	predecessor   *domain.Node
	fingers       []*domain.Node // length sp.Bits; fingers[i] covers (self+2^i) mod 2^m
	successorList []*domain.Node // length sp.SuccListSize; successorList[0] is the immediate successor
	nextFinger    int            // next finger to refresh, cycled by fix_fingers
	active        bool           // true once create/join has run and shutdown has not
}

// New builds a Node for self, with no ring state yet. Call Create or
// Join before using it for lookups.
func New(self *domain.Node, sp domain.Space, rpc *transport.Client, store storage.Storage, lgr logger.Logger) *Node {
	return &Node{
		self:          self,
		sp:            sp,
		rpc:           rpc,
		store:         store,
		lgr:           lgr,
		fingers:       make([]*domain.Node, sp.Bits),
		successorList: make([]*domain.Node, sp.SuccListSize),
	}
}

func (n *Node) Self() *domain.Node   { return n.self }
func (n *Node) Space() domain.Space  { return n.sp }
func (n *Node) Storage() storage.Storage { return n.store }

func (n *Node) IsActive() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

func (n *Node) Predecessor() *domain.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.predecessor
}

func (n *Node) setPredecessor(p *domain.Node) {
	n.mu.Lock()
	n.predecessor = p
	n.mu.Unlock()
}

// clearPredecessorIf clears the predecessor only if it still equals
// the expected node, avoiding a race where a newer notify() already
// replaced it by the time check_predecessor's ping fails.
func (n *Node) clearPredecessorIf(expected *domain.Node) {
	n.mu.Lock()
	if n.predecessor.Equal(expected) {
		n.predecessor = nil
	}
	n.mu.Unlock()
}

func (n *Node) Successor() *domain.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.successorList) == 0 {
		return nil
	}
	return n.successorList[0]
}

func (n *Node) SuccessorList() []*domain.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*domain.Node, len(n.successorList))
	copy(out, n.successorList)
	return out
}

func (n *Node) setSuccessorList(list []*domain.Node) {
	fixed := make([]*domain.Node, len(n.successorList))
	copy(fixed, list)
	n.mu.Lock()
	n.successorList = fixed
	n.mu.Unlock()
}

func (n *Node) Finger(i int) *domain.Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if i < 0 || i >= len(n.fingers) {
		return nil
	}
	return n.fingers[i]
}

func (n *Node) setFinger(i int, node *domain.Node) {
	n.mu.Lock()
	if i >= 0 && i < len(n.fingers) {
		n.fingers[i] = node
	}
	n.mu.Unlock()
}

// fingerStart returns the start identifier of finger i:
// (self.ID + 2^i) mod 2^m.
func (n *Node) fingerStart(i int) domain.ID {
	return n.sp.AddPowerOfTwoMod(n.self.ID, i)
}

func (n *Node) DebugLog() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	fields := []logger.Field{
		logger.F("self", n.self.Addr),
		logger.F("active", n.active),
	}
	if n.predecessor != nil {
		fields = append(fields, logger.F("predecessor", n.predecessor.Addr))
	}
	succ := make([]string, 0, len(n.successorList))
	for _, s := range n.successorList {
		if s != nil {
			succ = append(succ, s.Addr)
		}
	}
	fields = append(fields, logger.F("successors", succ))
	n.lgr.Debug("node snapshot", fields...)
}
