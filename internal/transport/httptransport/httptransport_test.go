package httptransport_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chorddht/internal/chord"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
	"chorddht/internal/storage"
	"chorddht/internal/transport"
	"chorddht/internal/transport/httptransport"
	"chorddht/internal/wire"
)

func newServedNode(t *testing.T, sp domain.Space, rpc *transport.Client) (*chord.Node, *httptest.Server) {
	t.Helper()

	self := &domain.Node{} // addr filled in after the real server starts
	store := storage.NewMemory(&logger.NopLogger{}, sp)
	n := chord.New(self, sp, rpc, store, &logger.NopLogger{})

	srv := httptest.NewServer(httptransport.NewHandler(n, &logger.NopLogger{}))
	addr := strings.TrimPrefix(srv.URL, "http://")
	self.Addr = addr
	self.ID = sp.Bucketize(addr)
	return n, srv
}

func TestHTTPTransportNodeRoundTrip(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	client := httptransport.NewClient(5 * time.Second)
	rpc := transport.NewClient(client)

	n, srv := newServedNode(t, sp, rpc)
	defer srv.Close()
	if err := n.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	resp, err := rpc.Node(ctx, n.Self().Addr)
	if err != nil {
		t.Fatalf("Node RPC: %v", err)
	}
	if resp.Self.Addr != n.Self().Addr {
		t.Fatalf("expected self addr %q, got %q", n.Self().Addr, resp.Self.Addr)
	}
}

func TestHTTPTransportGetKeyNotResponsibleMapsToSentinel(t *testing.T) {
	sp, err := domain.NewSpace(16, 3)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	client := httptransport.NewClient(5 * time.Second)
	rpc := transport.NewClient(client)

	n, srv := newServedNode(t, sp, rpc)
	defer srv.Close()
	if err := n.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Force a predecessor so the node no longer considers itself
	// responsible for every key, then ask for a key via no_redirect;
	// its bucket falls outside (predecessor, self] unless it lands
	// between bucket 1 and our own ID.
	other := &domain.Node{Addr: "unreachable:9999", ID: sp.FromUint64(1)}
	n.HandleNotify(other)

	ctx := context.Background()
	_, err = rpc.GetKey(ctx, n.Self().Addr, wire.GetKeyRequest{Key: "whatever-key", NoRedirect: true})
	if err == nil {
		// The bucketized key might happen to fall inside our own
		// interval; that's a valid outcome too as long as no transport
		// error occurred.
		return
	}
	if !errors.Is(err, chord.ErrNotResponsible) {
		t.Fatalf("expected ErrNotResponsible or no error, got %v", err)
	}
}
