package telemetry

import (
	"chorddht/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// IdAttributes renders id in three parallel encodings under prefix, so
// traces stay readable (dec) without losing the exact ring position
// (hex/bin).
func IdAttributes(prefix string, id domain.ID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(prefix+".dec", id.ToBigInt().String()),
		attribute.String(prefix+".hex", id.ToHexString(true)),
		attribute.String(prefix+".bin", id.ToBinaryString(true)),
	}
}
