package telemetry

import (
	"context"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HONEYCOMB_API_KEY", "HONEYCOMB_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_SERVICE_NAME", "OTEL_ENVIRONMENT", "SITEGEN_TRACE_SAMPLE_RATIO",
	} {
		t.Setenv(key, "")
	}
}

func TestConfigFromEnvDisabled(t *testing.T) {
	clearEnv(t)
	if _, ok := ConfigFromEnv("1.0.0"); ok {
		t.Fatal("expected telemetry to be disabled without an exporter")
	}

	shutdown, err := InitializeFromEnv(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("InitializeFromEnv failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown returned %v", err)
	}
}

func TestConfigFromEnvHoneycomb(t *testing.T) {
	clearEnv(t)
	t.Setenv("HONEYCOMB_API_KEY", "secret")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	cfg, ok := ConfigFromEnv("1.2.3")
	if !ok {
		t.Fatal("expected telemetry to be enabled")
	}
	if cfg.Endpoint != defaultHoneycombEndpoint || cfg.Insecure {
		t.Errorf("unexpected endpoint %q insecure=%v", cfg.Endpoint, cfg.Insecure)
	}
	if cfg.Headers["x-honeycomb-team"] != "secret" {
		t.Errorf("missing honeycomb header: %v", cfg.Headers)
	}
	if cfg.ServiceName != "sitegen" || cfg.ServiceVersion != "1.2.3" || cfg.Environment != "development" {
		t.Errorf("unexpected service fields: %+v", cfg)
	}
	if cfg.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestConfigFromEnvOTLP(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_SERVICE_NAME", "sitegen-ci")
	t.Setenv("OTEL_ENVIRONMENT", "ci")
	t.Setenv("SITEGEN_TRACE_SAMPLE_RATIO", "0.25")

	cfg, ok := ConfigFromEnv("dev")
	if !ok {
		t.Fatal("expected telemetry to be enabled")
	}
	if cfg.Endpoint != "localhost:4318" || !cfg.Insecure || cfg.Headers != nil {
		t.Errorf("unexpected exporter settings: %+v", cfg)
	}
	if cfg.ServiceName != "sitegen-ci" || cfg.Environment != "ci" || cfg.SampleRatio != 0.25 {
		t.Errorf("unexpected settings: %+v", cfg)
	}
}

func TestSampleRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 1},
		{"0", 0},
		{"0.5", 0.5},
		{"1", 1},
		{"1.5", 1},
		{"-0.1", 1},
		{"half", 1},
	}
	for _, tt := range tests {
		if got := sampleRatio(tt.in); got != tt.want {
			t.Errorf("sampleRatio(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartSpanBeforeInitialize(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	if ctx == nil {
		t.Fatal("nil context")
	}
}
