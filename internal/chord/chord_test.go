package chord_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/storage"
	"chorddht/internal/transport"
	"chorddht/internal/wire"
)

// registry is an in-process fake transport.Transport: it dispatches
// each op directly to the matching node's handler methods (round-
// tripping through JSON marshal/unmarshal, like a real transport
// would) instead of going over the network. This lets the chord
// package's RPC-facing logic be exercised without sockets.
type registry struct {
	nodes map[string]*chord.Node
}

func newRegistry() *registry {
	return &registry{nodes: make(map[string]*chord.Node)}
}

func (r *registry) add(n *chord.Node) {
	r.nodes[n.Self().Addr] = n
}

// remove simulates a node disappearing from the ring without a
// graceful shutdown: subsequent sends to its address fail as if it
// were unreachable.
func (r *registry) remove(addr string) {
	delete(r.nodes, addr)
}

func (r *registry) Send(ctx context.Context, addr string, op wire.Op, req, resp any) error {
	n, ok := r.nodes[addr]
	if !ok {
		return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrUnreachable}
	}

	roundtrip := func(v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, resp)
	}

	switch op {
	case wire.OpNode:
		self := n.Self()
		return roundtrip(wire.NodeResponse{Self: wire.NodeHandle{Addr: self.Addr, ID: self.ID.ToHexString(false)}})

	case wire.OpFindSuccessor:
		var r2 wire.FindSuccessorRequest
		if err := remarshal(req, &r2); err != nil {
			return err
		}
		target, err := n.Space().FromHexString(r2.TargetIDHex)
		if err != nil {
			return err
		}
		succ, hops, err := n.FindSuccessor(ctx, target, r2.Hops)
		if err != nil {
			return err
		}
		return roundtrip(wire.FindSuccessorResponse{Successor: handleOf(succ), Hops: hops})

	case wire.OpJoin:
		var r2 wire.JoinRequest
		if err := remarshal(req, &r2); err != nil {
			return err
		}
		id, err := n.Space().FromHexString(r2.Joining.ID)
		if err != nil {
			return err
		}
		succ, err := n.HandleJoin(ctx, &domain.Node{Addr: r2.Joining.Addr, ID: id}, r2.RingBits)
		if err != nil {
			return err
		}
		return roundtrip(wire.JoinResponse{Successor: handleOf(succ)})

	case wire.OpNotify:
		var r2 wire.NotifyRequest
		if err := remarshal(req, &r2); err != nil {
			return err
		}
		id, err := n.Space().FromHexString(r2.Candidate.ID)
		if err != nil {
			return err
		}
		n.HandleNotify(&domain.Node{Addr: r2.Candidate.Addr, ID: id})
		return roundtrip(wire.NotifyResponse{Accepted: true})

	case wire.OpGetPredecessor:
		pred := n.Predecessor()
		if pred == nil {
			return roundtrip(wire.GetPredecessorResponse{})
		}
		h := handleOf(pred)
		return roundtrip(wire.GetPredecessorResponse{Predecessor: &h})

	case wire.OpGetSuccessorList:
		list := n.SuccessorList()
		out := make([]*wire.NodeHandle, len(list))
		for i, s := range list {
			if s != nil {
				h := handleOf(s)
				out[i] = &h
			}
		}
		return roundtrip(wire.GetSuccessorListResponse{Successors: out})

	case wire.OpShutdown:
		ok, err := n.HandleShutdown(ctx)
		if err != nil {
			return err
		}
		return roundtrip(wire.ShutdownResponse{OK: ok})

	case wire.OpGetKey:
		var r2 wire.GetKeyRequest
		if err := remarshal(req, &r2); err != nil {
			return err
		}
		value, found, err := n.HandleGetKey(ctx, r2.Key, r2.NoRedirect)
		if err != nil {
			return err
		}
		return roundtrip(wire.GetKeyResponse{Found: found, Value: value})

	case wire.OpPutKey:
		var r2 wire.PutKeyRequest
		if err := remarshal(req, &r2); err != nil {
			return err
		}
		ok, err := n.HandlePutKey(ctx, r2.Key, r2.Value, r2.NoRedirect)
		if err != nil {
			return err
		}
		return roundtrip(wire.PutKeyResponse{OK: ok})

	default:
		return fmt.Errorf("unsupported op in test registry: %s", op)
	}
}

func remarshal(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func handleOf(n *domain.Node) wire.NodeHandle {
	return wire.NodeHandle{Addr: n.Addr, ID: n.ID.ToHexString(false)}
}

// newTestNode builds a chord.Node bound to addr, sharing reg as its
// transport so it can see every other node added to reg.
func newTestNode(t *testing.T, reg *registry, sp domain.Space, addr string) *chord.Node {
	t.Helper()
	id := sp.Bucketize(addr)
	self := &domain.Node{Addr: addr, ID: id}
	store := storage.NewMemory(&logger.NopLogger{}, sp)
	n := chord.New(self, sp, transport.NewClient(reg), store, &logger.NopLogger{})
	reg.add(n)
	return n
}
