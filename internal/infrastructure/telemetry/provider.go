// Package telemetry wires OpenTelemetry traces, metrics and logs into the
// service. Everything is exported over OTLP gRPC and is off unless enabled.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Config is shared by the trace, metric and log providers. SamplingRatio
// only applies to traces and ExportInterval only to metrics.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	Insecure          bool
	ServiceName       string
	ServiceVersion    string
	SamplingRatio     float64
	ExportInterval    time.Duration
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

type sdkProvider interface {
	Shutdown(ctx context.Context) error
}

// shutdownProvider flushes and stops p, bounded by shutdownTimeout
func shutdownProvider(ctx context.Context, name string, p sdkProvider, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.Shutdown(ctx); err != nil {
		log.Error("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", name, err)
	}
	log.Info("Telemetry provider stopped", zap.String("provider", name))
	return nil
}
