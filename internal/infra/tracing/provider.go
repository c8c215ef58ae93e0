// Package tracing installs the OpenTelemetry tracer provider used by outbound HTTP clients.
package tracing

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const defaultServiceName = "storefront"

// Module provides the tracer provider
var Module = fx.Options(
	fx.Provide(New),
)

// Params holds dependencies for the tracer provider, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New returns the tracer provider for outbound calls. Without an endpoint a no-op
// provider is returned and nothing is exported.
func New(params Params) (trace.TracerProvider, error) {
	cfg := params.Config.Tracing
	if cfg == nil || cfg.Endpoint == "" {
		params.Logger.Info("Tracing not configured, spans are not exported")

		return noop.NewTracerProvider(), nil
	}

	provider, err := newSDKProvider(params.Ctx, cfg, serviceName(params.Config))
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	params.Logger.Info("Tracing enabled",
		slog.String("endpoint", cfg.Endpoint),
		slog.Float64("sample_ratio", cfg.SampleRatio),
	)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.WithStack(provider.Shutdown(ctx))
		},
	})

	return provider, nil
}

func newSDKProvider(ctx context.Context, cfg *config.TracingConfig, service string) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OTLP trace exporter")
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", service)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build trace resource")
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

func serviceName(cfg *config.Config) string {
	if cfg.Env.ServiceName != "" {
		return cfg.Env.ServiceName
	}

	return defaultServiceName
}
