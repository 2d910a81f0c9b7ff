// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package telemetry

import (
	"context"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), false, "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "noop")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Error("Disabled telemetry should produce no-op spans")
	}
}

func TestInit_Enabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:1")

	shutdown, err := Init(context.Background(), true, "bench-test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "run")
	if !span.SpanContext().IsValid() {
		t.Error("Enabled telemetry should produce recording spans")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
