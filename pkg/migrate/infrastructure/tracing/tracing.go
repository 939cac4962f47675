// Package tracing configures the OpenTelemetry tracer provider. Spans are
// exported over OTLP/HTTP when tracing is enabled; otherwise the global
// no-op provider stays in place.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"

	config "github.com/firelater/migrator/pkg/migrate/core/config"
	"github.com/firelater/migrator/pkg/migrate/support/util/logger"
)

// setupTracing installs a TracerProvider as the global OTel provider and
// registers its shutdown with the fx lifecycle.
func setupTracing(lc fx.Lifecycle, cfg *config.Config) error {
	tc := cfg.Migrator.Tracing
	if !tc.Enabled {
		logger.Debugf("Tracing disabled; using no-op tracer provider.")
		return nil
	}

	opts := []otlptracehttp.Option{}
	if tc.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(tc.Endpoint))
	}
	if tc.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(tc.ServiceName),
	))
	if err != nil {
		return err
	}

	sampleRatio := tc.SampleRatio
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1.0
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	logger.Infof("Tracing enabled (service=%s endpoint=%s ratio=%.2f)", tc.ServiceName, tc.Endpoint, sampleRatio)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return nil
}

// Module wires tracing setup into the fx application graph.
var Module = fx.Options(
	fx.Invoke(setupTracing),
)
