// Package tracing installs the process-wide OpenTelemetry tracer provider.
// Packages create their tracers with otel.Tracer at init; the global
// provider delegates them to whatever Setup installs later.
package tracing

import (
	"context"
	"fmt"
	"io"
	"time"

	"drxcare/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 5 * time.Second

// Setup exports spans as JSON lines to w when tracing is enabled. The
// returned func flushes and stops the provider; it is safe to call when
// tracing is disabled.
func Setup(cfg *config.Config, serviceName string, w io.Writer) (func(), error) {
	if !cfg.TracingEnabled {
		return func() {}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TracingSampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	cfg.Log.Info("Tracing enabled", "service", serviceName, "sample_ratio", cfg.TracingSampleRatio)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			cfg.Log.Warn("Failed to flush traces", "error", err)
		}
	}, nil
}
