// Package lookuptrace names the tracer used for find_successor lookup
// spans. Context propagation across the wire is handled by otelhttp's
// transport/handler instrumentation (W3C traceparent header); this
// package only centralizes the tracer name and a small start helper so
// every lookup hop, local or remote, reports under the same tracer.
package lookuptrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chorddht/lookup"

var tracer = otel.Tracer(tracerName)

// StartHop opens a span for a single find_successor hop (local
// resolution or one forwarded RPC).
func StartHop(ctx context.Context, name string, kind trace.SpanKind) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(kind))
}
