// Package observability wires OpenTelemetry trace export into Genkit.
//
// Genkit instruments every Generate call and tool invocation with spans on
// its own TracerProvider; this package attaches an OTLP HTTP exporter to it
// so those spans reach a local collector. Export is opt-in via config.
package observability

import (
	"context"
	"os"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/apotek/apotek/internal/log"
)

// DefaultEndpoint is the conventional local OTLP HTTP collector address.
const DefaultEndpoint = "localhost:4318"

// Config for trace export.
type Config struct {
	// Endpoint is the OTLP HTTP collector (default: localhost:4318).
	Endpoint string
	// ServiceName tags exported spans (default: apotek).
	ServiceName string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string

	Logger log.Logger
}

// Setup registers an OTLP exporter with Genkit's TracerProvider. Must run
// before genkit.Init so the provider is ready when spans start.
//
// Returns a shutdown function that flushes pending spans. An exporter
// construction failure disables tracing instead of failing startup.
func Setup(ctx context.Context, cfg Config) func() {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	// Genkit's TracerProvider reads service identity from OTEL env vars.
	// os.Setenv is safe here: called once during startup, before goroutines.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("trace export enabled",
		"endpoint", endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}
