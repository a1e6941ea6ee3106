// Package tracing wires OpenTelemetry spans around the façade's blocking
// operations (Get/GetAll/Put/PutAll and routing lookups), exporting to
// Jaeger when configured.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hydro-project/anna-go/internal/tracing"

// InitTracer builds and registers a TracerProvider that exports to a
// Jaeger collector at endpoint, tagged with serviceName. The provider
// is still returned on an export-configuration error so callers can
// keep using it for local in-process spans; only the exporter wiring
// can fail this way; the error is surfaced for the caller to log.
func InitTracer(serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	var opts []sdktrace.TracerProviderOption
	opts = append(opts, sdktrace.WithResource(res))
	if err == nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp, err
}

// StartSpan starts a span named name as a child of ctx, carrying attrs,
// using the global tracer provider (set by InitTracer, or the
// OpenTelemetry no-op default if InitTracer was never called).
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
