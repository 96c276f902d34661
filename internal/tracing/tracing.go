// Package tracing installs the OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type ShutdownFunc func(context.Context) error

// Setup exports spans over OTLP/HTTP when an endpoint is configured. Without
// one, the global no-op provider stays in place.
func Setup(ctx context.Context, cfg *config.OTel) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if cfg.ExporterEndpoint == "" {
		slog.Info("Tracing disabled, no exporter endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.ExporterEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := NewProvider(exporter, cfg)
	otel.SetTracerProvider(tp)

	slog.Info("Tracing enabled", slog.String("endpoint", cfg.ExporterEndpoint), slog.Float64("sampler_ratio", cfg.SamplerRatio))

	return tp.Shutdown, nil
}

func NewProvider(exporter sdktrace.SpanExporter, cfg *config.OTel) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplerRatio))),
	)
}
