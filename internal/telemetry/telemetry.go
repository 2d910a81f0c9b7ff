// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope for workbench spans
const ScopeName = "github.com/pdf-bench/internal/workbench"

// Shutdown flushes and stops the trace provider
type Shutdown func(context.Context) error

// Init installs an OTLP/HTTP trace provider when enabled. The exporter is
// configured from the standard OTEL_EXPORTER_OTLP_* variables. When disabled
// the global no-op provider is left in place.
func Init(ctx context.Context, enabled bool, serviceName string) (Shutdown, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}
	if serviceName == "" {
		serviceName = "pdf-bench"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the workbench tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}
