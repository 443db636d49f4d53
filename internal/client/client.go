// Package client is the CLI-facing counterpart to internal/server: a
// thin wrapper over transport.Client that talks to any single node in
// the ring and reports per-call latency, the way an operator's
// interactive shell needs to.
package client

import (
	"time"

	"chorddht/internal/transport"
	"chorddht/internal/transport/httptransport"
)

// Connect builds a Client talking to any node address. Unlike a pooled
// gRPC connection, it holds no per-peer state: switching target nodes
// is just passing a different addr to the next call.
func Connect(timeout time.Duration) *transport.Client {
	return transport.NewClient(httptransport.NewClient(timeout))
}
