// internal/observability/otel.go
//
// OpenTelemetry tracing bootstrap.
//
// Context
//   The contact component opens spans around the policy gate, schema
//   validation, and each notification send.  Without Init those spans go to
//   the global no-op provider.  Init installs an SDK provider with either a
//   stdout exporter (development) or an OTLP/HTTP exporter.
//
//   Span attributes carry submission IDs and outcomes only, never answers.
//
//------------------------------------------------------------------------------

package observability

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Options configures Init.
type Options struct {
	Enabled     bool
	Exporter    string
	Endpoint    string    // OTLP host:port; empty uses the SDK default
	Service     string
	Environment string
	Writer      io.Writer // stdout exporter sink; nil means os.Stdout
}

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs the global tracer provider.  When tracing is disabled it
// returns a no-op Shutdown and leaves the global provider untouched.
func Init(ctx context.Context, opts Options, log *zap.SugaredLogger) (Shutdown, error) {
	if !opts.Enabled {
		return noop, nil
	}
	if log == nil {
		log = zap.S()
	}

	exp, err := exporter(ctx, opts)
	if err != nil {
		return noop, fmt.Errorf("otel exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", opts.Service),
		attribute.String("deployment.environment", opts.Environment),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Infow("otel tracing initialized", "exporter", opts.Exporter, "endpoint", opts.Endpoint)
	return tp.Shutdown, nil
}

func exporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ExporterOTLP:
		var o []otlptracehttp.Option
		if opts.Endpoint != "" {
			o = append(o, otlptracehttp.WithEndpoint(opts.Endpoint))
		}
		return otlptracehttp.New(ctx, o...)
	case ExporterStdout, "":
		o := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if opts.Writer != nil {
			o = append(o, stdouttrace.WithWriter(opts.Writer))
		}
		return stdouttrace.New(o...)
	default:
		return nil, fmt.Errorf("unknown exporter %q", opts.Exporter)
	}
}
