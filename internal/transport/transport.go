// Package transport defines the contract peers use to call each other,
// independent of wire format. internal/transport/httptransport provides
// the reference JSON-over-HTTP implementation.
package transport

import (
	"context"
	"errors"
	"fmt"

	"chorddht/internal/wire"
)

// Sentinel errors a Transport implementation maps its failures onto.
// chord.Node treats any of these as a node-failure (spec §7).
// Stabilize drops a failed successor and promotes the next
// successor-list entry, and Shutdown tries the next successor-list
// entry for its handoff; FindSuccessor returns the error of a failed
// forward to its caller without trying another finger or successor.
var (
	ErrUnreachable = errors.New("peer unreachable")
	ErrTimeout     = errors.New("peer call timed out")
	ErrProtocol    = errors.New("protocol error")
)

// PeerError wraps a transport failure with the address that produced
// it, so logs and error chains show which peer failed.
type PeerError struct {
	Addr string
	Op   wire.Op
	Err  error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *PeerError) Unwrap() error { return e.Err }

// Transport is the uniform contract for reaching a remote peer: send
// one of the ten operations to addr and decode the response into resp.
// req/resp are the wire.*Request/wire.*Response pair for op.
type Transport interface {
	Send(ctx context.Context, addr string, op wire.Op, req, resp any) error
}

// Client adds typed, per-operation methods on top of a bare Transport,
// matching the ten RPCs named in the spec. This mirrors the way the
// rest of this codebase wraps a generic call primitive with one
// typed method per remote operation.
type Client struct {
	T Transport
}

func NewClient(t Transport) *Client { return &Client{T: t} }

func (c *Client) Node(ctx context.Context, addr string) (wire.NodeResponse, error) {
	var resp wire.NodeResponse
	err := c.T.Send(ctx, addr, wire.OpNode, wire.NodeRequest{}, &resp)
	return resp, err
}

func (c *Client) FindSuccessor(ctx context.Context, addr string, req wire.FindSuccessorRequest) (wire.FindSuccessorResponse, error) {
	var resp wire.FindSuccessorResponse
	err := c.T.Send(ctx, addr, wire.OpFindSuccessor, req, &resp)
	return resp, err
}

func (c *Client) Join(ctx context.Context, addr string, req wire.JoinRequest) (wire.JoinResponse, error) {
	var resp wire.JoinResponse
	err := c.T.Send(ctx, addr, wire.OpJoin, req, &resp)
	return resp, err
}

func (c *Client) Notify(ctx context.Context, addr string, req wire.NotifyRequest) (wire.NotifyResponse, error) {
	var resp wire.NotifyResponse
	err := c.T.Send(ctx, addr, wire.OpNotify, req, &resp)
	return resp, err
}

func (c *Client) GetPredecessor(ctx context.Context, addr string) (wire.GetPredecessorResponse, error) {
	var resp wire.GetPredecessorResponse
	err := c.T.Send(ctx, addr, wire.OpGetPredecessor, wire.GetPredecessorRequest{}, &resp)
	return resp, err
}

func (c *Client) GetSuccessorList(ctx context.Context, addr string) (wire.GetSuccessorListResponse, error) {
	var resp wire.GetSuccessorListResponse
	err := c.T.Send(ctx, addr, wire.OpGetSuccessorList, wire.GetSuccessorListRequest{}, &resp)
	return resp, err
}

func (c *Client) Shutdown(ctx context.Context, addr string) (wire.ShutdownResponse, error) {
	var resp wire.ShutdownResponse
	err := c.T.Send(ctx, addr, wire.OpShutdown, wire.ShutdownRequest{}, &resp)
	return resp, err
}

func (c *Client) GetKey(ctx context.Context, addr string, req wire.GetKeyRequest) (wire.GetKeyResponse, error) {
	var resp wire.GetKeyResponse
	err := c.T.Send(ctx, addr, wire.OpGetKey, req, &resp)
	return resp, err
}

func (c *Client) PutKey(ctx context.Context, addr string, req wire.PutKeyRequest) (wire.PutKeyResponse, error) {
	var resp wire.PutKeyResponse
	err := c.T.Send(ctx, addr, wire.OpPutKey, req, &resp)
	return resp, err
}
