// Package trace provides a short, loggable identifier for a single
// request as it hops across peers, derived from the OpenTelemetry span
// that internal/transport/httptransport already attaches to every
// inbound and outbound call.
package trace

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// IDFromContext returns the OTel trace ID active on ctx, or "" if none
// is set (tracing disabled, or called outside a request).
func IDFromContext(ctx context.Context) string {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
