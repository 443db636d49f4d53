package client

import (
	"context"
	"time"

	"chorddht/internal/transport"
	"chorddht/internal/wire"
)

// Put stores key/value on whichever node is currently responsible,
// letting addr's node resolve and forward if needed.
func Put(ctx context.Context, rpc *transport.Client, addr, key, value string) (time.Duration, error) {
	start := time.Now()
	_, err := rpc.PutKey(ctx, addr, wire.PutKeyRequest{Key: key, Value: value})
	return time.Since(start), err
}

// Get retrieves key's value via addr's node.
func Get(ctx context.Context, rpc *transport.Client, addr, key string) (string, bool, time.Duration, error) {
	start := time.Now()
	resp, err := rpc.GetKey(ctx, addr, wire.GetKeyRequest{Key: key})
	if err != nil {
		return "", false, time.Since(start), err
	}
	return resp.Value, resp.Found, time.Since(start), nil
}

// Lookup resolves the node responsible for a hex-encoded identifier,
// starting the search at addr.
func Lookup(ctx context.Context, rpc *transport.Client, addr, targetIDHex string) (wire.NodeHandle, int, time.Duration, error) {
	start := time.Now()
	resp, err := rpc.FindSuccessor(ctx, addr, wire.FindSuccessorRequest{TargetIDHex: targetIDHex})
	if err != nil {
		return wire.NodeHandle{}, 0, time.Since(start), err
	}
	return resp.Successor, resp.Hops, time.Since(start), nil
}

// Identify asks addr to report itself (the "node" RPC).
func Identify(ctx context.Context, rpc *transport.Client, addr string) (wire.NodeHandle, time.Duration, error) {
	start := time.Now()
	resp, err := rpc.Node(ctx, addr)
	return resp.Self, time.Since(start), err
}

// Successors retrieves addr's successor list.
func Successors(ctx context.Context, rpc *transport.Client, addr string) ([]*wire.NodeHandle, time.Duration, error) {
	start := time.Now()
	resp, err := rpc.GetSuccessorList(ctx, addr)
	return resp.Successors, time.Since(start), err
}

// Predecessor retrieves addr's predecessor, if any.
func Predecessor(ctx context.Context, rpc *transport.Client, addr string) (*wire.NodeHandle, time.Duration, error) {
	start := time.Now()
	resp, err := rpc.GetPredecessor(ctx, addr)
	return resp.Predecessor, time.Since(start), err
}
