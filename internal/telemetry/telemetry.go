// Package telemetry exports traces of sitegen runs over OTLP when a
// collector is configured in the environment.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "sitegen"

const (
	defaultHoneycombEndpoint = "api.honeycomb.io"
	exportTimeout            = 5 * time.Second
	// A CLI run is short; flush spans well before the default five seconds.
	batchTimeout = time.Second
)

var tracer trace.Tracer

// Config describes where and how traces of one CLI run are exported.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Headers        map[string]string
	Insecure       bool
	// SampleRatio is the fraction of root traces kept, in [0, 1].
	SampleRatio float64
}

// ConfigFromEnv reads the exporter settings. It reports false when neither
// HONEYCOMB_API_KEY nor OTEL_EXPORTER_OTLP_ENDPOINT is set.
func ConfigFromEnv(serviceVersion string) (Config, bool) {
	cfg := Config{
		ServiceName:    getEnvOrDefault("OTEL_SERVICE_NAME", instrumentationName),
		ServiceVersion: serviceVersion,
		Environment:    getEnvOrDefault("OTEL_ENVIRONMENT", "development"),
		SampleRatio:    sampleRatio(os.Getenv("SITEGEN_TRACE_SAMPLE_RATIO")),
	}

	if key := os.Getenv("HONEYCOMB_API_KEY"); key != "" {
		cfg.Endpoint = getEnvOrDefault("HONEYCOMB_ENDPOINT", defaultHoneycombEndpoint)
		cfg.Headers = map[string]string{"x-honeycomb-team": key}
		return cfg, true
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
		cfg.Insecure = true
		return cfg, true
	}
	return Config{}, false
}

// Initialize installs a tracer provider exporting to cfg.Endpoint and
// returns its shutdown func, which flushes pending spans.
func Initialize(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.ServiceInstanceID(uuid.NewString()),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithTelemetrySDK(),
		resource.WithOS(),
		resource.WithProcessExecutableName(),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithHeaders(cfg.Headers),
		otlptracehttp.WithTimeout(exportTimeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer = tp.Tracer(instrumentationName)

	return tp.Shutdown, nil
}

// InitializeFromEnv is Initialize with ConfigFromEnv. Without an exporter
// configured it installs nothing and returns a no-op shutdown func.
func InitializeFromEnv(ctx context.Context, serviceVersion string) (func(context.Context) error, error) {
	cfg, ok := ConfigFromEnv(serviceVersion)
	if !ok {
		return func(context.Context) error { return nil }, nil
	}
	return Initialize(ctx, cfg)
}

// GetTracer returns the sitegen tracer, or the global one before Initialize.
func GetTracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name, opts...)
}

// sampleRatio parses a ratio, defaulting to 1 when unset or invalid.
func sampleRatio(s string) float64 {
	if s == "" {
		return 1
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r < 0 || r > 1 {
		return 1
	}
	return r
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
