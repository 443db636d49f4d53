// Package simulator builds an in-process Chord ring for demos and
// tests: every node lives in the same process and talks to its peers
// through an in-memory transport.Transport instead of real sockets,
// the way internal/chord's own test harness does, but packaged for
// reuse by cmd/simulator and by other tests that want a multi-node
// ring without the cost of real HTTP servers.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
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

// Ring is a set of in-process Chord nodes sharing a loopback
// transport and a maintenance scheduler each.
type Ring struct {
	space     domain.Space
	lgr       logger.Logger
	mu        sync.RWMutex
	nodes     map[string]*chord.Node
	schedulers []*scheduler.Scheduler
}

// New creates an empty ring over the given identifier space.
func New(sp domain.Space, lgr logger.Logger) *Ring {
	if lgr == nil {
		lgr = &logger.NopLogger{}
	}
	return &Ring{space: sp, lgr: lgr, nodes: make(map[string]*chord.Node)}
}

// Build creates n nodes addressed "sim-node-0".."sim-node-{n-1}", has
// the first create the ring and the rest join it in turn, and starts
// each node's maintenance scheduler with maint's intervals. It returns
// once every join has resolved a successor.
func Build(ctx context.Context, sp domain.Space, n int, maint config.MaintenanceConfig, lgr logger.Logger) (*Ring, error) {
	r := New(sp, lgr)
	if n <= 0 {
		return r, nil
	}

	first := r.addNode(fmt.Sprintf("sim-node-%d", 0))
	if err := first.Create(); err != nil {
		return nil, fmt.Errorf("create ring: %w", err)
	}
	r.startScheduler(ctx, first, maint)

	for i := 1; i < n; i++ {
		addr := fmt.Sprintf("sim-node-%d", i)
		node := r.addNode(addr)
		joinCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := node.Join(joinCtx, first.Self().Addr)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("join node %s: %w", addr, err)
		}
		r.startScheduler(ctx, node, maint)
	}

	return r, nil
}

func (r *Ring) addNode(addr string) *chord.Node {
	id := r.space.Bucketize(addr)
	self := &domain.Node{Addr: addr, ID: id}
	store := storage.NewMemory(r.lgr.Named("storage").With(logger.F("addr", addr)), r.space)
	node := chord.New(self, r.space, transport.NewClient(r), store, r.lgr.Named("node").With(logger.F("addr", addr)))

	r.mu.Lock()
	r.nodes[addr] = node
	r.mu.Unlock()
	return node
}

func (r *Ring) startScheduler(ctx context.Context, n *chord.Node, maint config.MaintenanceConfig) {
	sched := scheduler.New(n, r.lgr.Named("scheduler"), maint)
	sched.Start(ctx)

	r.mu.Lock()
	r.schedulers = append(r.schedulers, sched)
	r.mu.Unlock()
}

// Nodes returns every node currently in the ring, keyed by address.
func (r *Ring) Nodes() map[string]*chord.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*chord.Node, len(r.nodes))
	for k, v := range r.nodes {
		out[k] = v
	}
	return out
}

// Stats summarizes a single node's view of the ring for reporting.
type Stats struct {
	Addr          string
	ID            string
	Successor     string
	Predecessor   string
	FingersSet    int
	FingersTotal  int
}

// Snapshot reports convergence stats for every node in the ring.
func (r *Ring) Snapshot() []Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Stats, 0, len(r.nodes))
	for addr, n := range r.nodes {
		st := Stats{Addr: addr, ID: n.Self().ID.ToHexString(true)}
		if succ := n.Successor(); succ != nil {
			st.Successor = succ.Addr
		}
		if pred := n.Predecessor(); pred != nil {
			st.Predecessor = pred.Addr
		}
		st.FingersTotal = n.Space().Bits
		for i := 0; i < st.FingersTotal; i++ {
			if n.Finger(i) != nil {
				st.FingersSet++
			}
		}
		out = append(out, st)
	}
	return out
}

// Send implements transport.Transport by dispatching directly to the
// addressed node's handler methods, round-tripping request/response
// values through JSON like a real wire call would.
func (r *Ring) Send(ctx context.Context, addr string, op wire.Op, req, resp any) error {
	r.mu.RLock()
	n, ok := r.nodes[addr]
	r.mu.RUnlock()
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
		return roundtrip(wire.NodeResponse{Self: handleOf(self)})

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
		return fmt.Errorf("unsupported op in simulator transport: %s", op)
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
