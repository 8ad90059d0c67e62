package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracing owns the tracer provider exporting spans to a Jaeger collector.
type Tracing struct {
	provider    *sdktrace.TracerProvider
	serviceName string
}

func NewTracing(serviceName, endpoint string) (*Tracing, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}
	return newTracing(serviceName, sdktrace.WithBatcher(exporter)), nil
}

// NewTracingWithExporter is used by tests to capture spans in memory.
func NewTracingWithExporter(serviceName string, exporter sdktrace.SpanExporter) *Tracing {
	return newTracing(serviceName, sdktrace.WithSyncer(exporter))
}

func newTracing(serviceName string, opt sdktrace.TracerProviderOption) *Tracing {
	provider := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(provider)
	return &Tracing{provider: provider, serviceName: serviceName}
}

func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(t.serviceName)
}

func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
