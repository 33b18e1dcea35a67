package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer returns a tracer for one component, backed by the globally
// registered provider. Until the host process installs a provider the
// returned tracer is a no-op.
func NewTracer(component string) trace.Tracer {
	return otel.Tracer(component)
}
