// Package httptransport is the reference transport.Transport
// implementation: each of the ten RPCs is a JSON POST to a path named
// after the operation, traced automatically by otelhttp's W3C
// traceparent propagation.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"chorddht/internal/transport"
	"chorddht/internal/wire"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// path returns the URL path an operation is served on.
func path(op wire.Op) string {
	return "/chord/" + string(op)
}

// Client is a transport.Transport backed by net/http, with a bounded
// dial/idle-connection budget so a handful of stuck peers cannot
// exhaust file descriptors across a long-running node.
type Client struct {
	hc *http.Client
}

// NewClient builds an HTTP-based Transport. timeout bounds a single
// RPC round trip end to end, including connection setup.
func NewClient(timeout time.Duration) *Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		hc: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   timeout,
		},
	}
}

// Send implements transport.Transport.
func (c *Client) Send(ctx context.Context, addr string, op wire.Op, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", transport.ErrProtocol, err)
	}

	url := "http://" + addr + path(op)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", transport.ErrProtocol, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrTimeout}
		}
		return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrUnreachable}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrUnreachable}
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp wire.ErrorResponse
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Kind != "" {
			return &transport.PeerError{Addr: addr, Op: op, Err: errorForKind(errResp.Kind, errResp.Message)}
		}
		return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrProtocol}
	}

	if err := json.Unmarshal(raw, resp); err != nil {
		return &transport.PeerError{Addr: addr, Op: op, Err: transport.ErrProtocol}
	}
	return nil
}
