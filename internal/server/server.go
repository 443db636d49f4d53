package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"chorddht/internal/chord"
	"chorddht/internal/logger"
	"chorddht/internal/transport/httptransport"
)

// Server wraps an HTTP server hosting a node's nine wire RPCs (create
// is not served).
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	lgr        logger.Logger
}

// New creates an HTTP server bound to lis, serving n's RPCs.
func New(lis net.Listener, n *chord.Node, srvOpts ...Option) (*Server, error) {
	s := &Server{
		listener: lis,
		lgr:      &logger.NopLogger{}, // default: no logging
	}
	for _, opt := range srvOpts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Handler: httptransport.NewHandler(n, s.lgr),
	}
	return s, nil
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server stopped: %w", err)
	}
	return nil
}

// Stop immediately closes the server and all active connections.
func (s *Server) Stop() {
	_ = s.httpServer.Close()
}

// GracefulStop shuts the server down, waiting for in-flight requests
// to complete or ctx to expire.
func (s *Server) GracefulStop(ctx context.Context) {
	_ = s.httpServer.Shutdown(ctx)
}
