package httptransport

import (
	"encoding/json"
	"net/http"

	"chorddht/internal/chord"
	"chorddht/internal/ctxutil"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/wire"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHandler builds the http.Handler a node serves nine RPCs on (every
// wire.Op except create, which runs only locally), one path per op,
// wrapped with otelhttp for automatic
// traceparent propagation and span creation.
func NewHandler(n *chord.Node, lgr logger.Logger) http.Handler {
	mux := http.NewServeMux()

	register(mux, lgr, wire.OpNode, func(r *http.Request) (any, error) {
		self := n.Self()
		return wire.NodeResponse{Self: wire.NodeHandle{Addr: self.Addr, ID: self.ID.ToHexString(false)}}, nil
	})

	register(mux, lgr, wire.OpFindSuccessor, func(r *http.Request) (any, error) {
		var req wire.FindSuccessorRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		target, err := n.Space().FromHexString(req.TargetIDHex)
		if err != nil {
			return nil, err
		}
		succ, hops, err := n.FindSuccessor(r.Context(), target, req.Hops)
		if err != nil {
			return nil, err
		}
		return wire.FindSuccessorResponse{
			Successor: wire.NodeHandle{Addr: succ.Addr, ID: succ.ID.ToHexString(false)},
			Hops:      hops,
		}, nil
	})

	register(mux, lgr, wire.OpJoin, func(r *http.Request) (any, error) {
		var req wire.JoinRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		joiningID, err := n.Space().FromHexString(req.Joining.ID)
		if err != nil {
			return nil, err
		}
		joining := &domain.Node{Addr: req.Joining.Addr, ID: joiningID}
		succ, err := n.HandleJoin(r.Context(), joining, req.RingBits)
		if err != nil {
			return nil, err
		}
		return wire.JoinResponse{Successor: wire.NodeHandle{Addr: succ.Addr, ID: succ.ID.ToHexString(false)}}, nil
	})

	register(mux, lgr, wire.OpNotify, func(r *http.Request) (any, error) {
		var req wire.NotifyRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		candID, err := n.Space().FromHexString(req.Candidate.ID)
		if err != nil {
			return nil, err
		}
		candidate := &domain.Node{Addr: req.Candidate.Addr, ID: candID}
		n.HandleNotify(candidate)
		return wire.NotifyResponse{Accepted: true}, nil
	})

	register(mux, lgr, wire.OpGetPredecessor, func(r *http.Request) (any, error) {
		pred := n.Predecessor()
		if pred == nil {
			return wire.GetPredecessorResponse{Predecessor: nil}, nil
		}
		return wire.GetPredecessorResponse{
			Predecessor: &wire.NodeHandle{Addr: pred.Addr, ID: pred.ID.ToHexString(false)},
		}, nil
	})

	register(mux, lgr, wire.OpGetSuccessorList, func(r *http.Request) (any, error) {
		list := n.SuccessorList()
		out := make([]*wire.NodeHandle, len(list))
		for i, s := range list {
			if s != nil {
				out[i] = &wire.NodeHandle{Addr: s.Addr, ID: s.ID.ToHexString(false)}
			}
		}
		return wire.GetSuccessorListResponse{Successors: out}, nil
	})

	register(mux, lgr, wire.OpShutdown, func(r *http.Request) (any, error) {
		ok, err := n.HandleShutdown(r.Context())
		if err != nil {
			return nil, err
		}
		return wire.ShutdownResponse{OK: ok}, nil
	})

	register(mux, lgr, wire.OpGetKey, func(r *http.Request) (any, error) {
		var req wire.GetKeyRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		// no_redirect callers (peers that already resolved the owner
		// themselves) get an authoritative local answer or a clean
		// rejection; anyone else gets the node's own resolve-and-forward
		// path, so any node in the ring can serve as an external entry
		// point.
		var value string
		var found bool
		var err error
		if req.NoRedirect {
			value, found, err = n.HandleGetKey(r.Context(), req.Key, true)
		} else {
			value, found, err = n.Get(r.Context(), req.Key)
		}
		if err != nil {
			return nil, err
		}
		return wire.GetKeyResponse{Found: found, Value: value}, nil
	})

	register(mux, lgr, wire.OpPutKey, func(r *http.Request) (any, error) {
		var req wire.PutKeyRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		var err error
		if req.NoRedirect {
			_, err = n.HandlePutKey(r.Context(), req.Key, req.Value, true)
		} else {
			err = n.Put(r.Context(), req.Key, req.Value)
		}
		if err != nil {
			return nil, err
		}
		return wire.PutKeyResponse{OK: true}, nil
	})

	return otelhttp.NewHandler(mux, "chord.rpc")
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// register wires a single op's handler, centralizing the
// context-liveness check, JSON response encoding, and error-to-status
// mapping every handler above otherwise repeats.
func register(mux *http.ServeMux, lgr logger.Logger, op wire.Op, fn func(*http.Request) (any, error)) {
	p := path(op)
	mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
		if err := ctxutil.Check(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		resp, err := fn(r)
		if err != nil {
			lgr.Debug("rpc handler failed", logger.F("op", string(op)), logger.F("err", err.Error()))
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := kindForError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(wire.ErrorResponse{Kind: kind, Message: err.Error()})
}
