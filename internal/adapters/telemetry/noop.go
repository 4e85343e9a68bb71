package telemetry

import (
	"go.opentelemetry.io/otel/trace/noop"
	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Tracer = (*OTelTracer)(nil)

// NewNoOpTracer returns a tracer whose spans record nothing.
func NewNoOpTracer() *OTelTracer {
	return NewOTelTracerFrom(noop.NewTracerProvider(), "noop")
}
