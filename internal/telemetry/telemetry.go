// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/njchilds90/gointegral/internal/config"
)

var ErrUnknownExporter = errors.New("unknown trace exporter")

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(context.Context) error

// Options identify the service and, for the stdout exporter, where spans go.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Writer         io.Writer
}

// Init builds a tracer provider for cfg and sets it globally. With the
// "none" exporter nothing is installed and the returned shutdown is a no-op.
func Init(ctx context.Context, cfg config.TracingConfig, opts Options) (ShutdownFunc, error) {
	if cfg.Exporter == "" || cfg.Exporter == "none" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.TracingConfig, opts Options) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		o := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			o = append(o, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, o...)
	case "stdout":
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
}
