package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Fatalf("tracing enabled by default")
	}
	if cfg.Exporter != "stdout" || cfg.ServiceName != "scenekit" || cfg.SampleRatio != 1 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SCENE_TRACING_ENABLED", "true")
	t.Setenv("SCENE_TRACING_EXPORTER", "OTLP")
	t.Setenv("SCENE_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("SCENE_TRACING_SAMPLE_RATIO", "0.25")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("config = %+v", cfg)
	}

	t.Setenv("SCENE_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("out of range ratio = %v, want 1", got)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	SetStdoutExporterWriter(&buf)
	t.Cleanup(func() { SetStdoutExporterWriter(nil) })

	ctx := context.Background()
	shutdown, err := InitTracing(ctx, TracingConfig{Enabled: true, Exporter: "stdout", ServiceName: "test", SampleRatio: 1}, nil)
	if err != nil {
		t.Fatalf("InitTracing error: %v", err)
	}
	_, span := otel.Tracer("test").Start(ctx, "scene.export")
	span.End()
	ShutdownWithTimeout(ctx, shutdown, nil)

	if !strings.Contains(buf.String(), "scene.export") {
		t.Fatalf("span not exported: %q", buf.String())
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}
