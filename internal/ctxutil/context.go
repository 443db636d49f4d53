// Package ctxutil provides small context helpers, used by the HTTP
// transport's request handlers: a pre-handler context-liveness check and
// a plain-Go-error substitute for the grpc status codes the teacher
// codebase used (this transport has no grpc dependency).
package ctxutil

import (
	"context"
	"errors"
)

var (
	ErrCanceled         = errors.New("request canceled by caller")
	ErrDeadlineExceeded = errors.New("request deadline exceeded")
)

// Check verifies whether ctx has already been canceled or its
// deadline has expired, returning a sentinel error if so. Handlers
// call this first so a canceled request never does partial routing
// work that its caller no longer wants.
func Check(ctx context.Context) error {
	switch err := ctx.Err(); {
	case errors.Is(err, context.Canceled):
		return ErrCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrDeadlineExceeded
	default:
		return nil
	}
}
