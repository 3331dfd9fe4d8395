// Package telemetry wires OpenTelemetry tracing for specforge commands.
// Tracing is off unless tracing.enabled is set; spans are exported over
// OTLP HTTP using the standard OTEL_EXPORTER_OTLP_* environment variables.
package telemetry

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config represents the configuration for the telemetry system
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// SamplerType is one of always, never or ratio
	SamplerType  string
	SamplerRatio float64
}

// ConfigFromViper reads the tracing.* settings
func ConfigFromViper(serviceVersion string) Config {
	return Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    InstrumentationName,
		ServiceVersion: serviceVersion,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}
}

// InitTracer installs the global tracer provider and returns its shutdown
// function. When tracing is disabled the global no-op provider stays in
// place and shutdown does nothing.
func InitTracer(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create resource")
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create trace exporter")
	}

	// commands are short-lived; flush quickly
	processor := trace.NewBatchSpanProcessor(
		exporter,
		trace.WithMaxExportBatchSize(512),
		trace.WithBatchTimeout(time.Second),
	)

	provider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSpanProcessor(processor),
		trace.WithSampler(getSampler(cfg)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), exporter.Shutdown(ctx))
	}, nil
}

func getSampler(cfg Config) trace.Sampler {
	switch cfg.SamplerType {
	case "never":
		return trace.NeverSample()
	case "ratio":
		return trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplerRatio))
	default:
		return trace.AlwaysSample()
	}
}
