package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// InstrumentationName names the tracer used by this module.
const InstrumentationName = "github.com/bo-socayo/temporal-sandbox"

// TracingConfig controls the global tracer provider.
type TracingConfig struct {
	Enabled     bool
	Exporter    string
	ServiceName string
}

// ShutdownFunc flushes and releases tracing resources.
type ShutdownFunc func(context.Context) error

// SetupTracing installs the global OpenTelemetry tracer provider and
// propagators. With tracing disabled the global no-op provider stays in
// place and the returned shutdown does nothing.
func SetupTracing(cfg TracingConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	}

	switch cfg.Exporter {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// NewTracingInterceptor bridges the global tracer provider into the Temporal
// interceptor chain. The same interceptor serves the client and the worker.
func NewTracingInterceptor() (interceptor.Interceptor, error) {
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer(InstrumentationName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing interceptor: %w", err)
	}
	return tracingInterceptor, nil
}
