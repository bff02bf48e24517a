package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/neighborhood-lab/care-commons/internal/config"
	"github.com/neighborhood-lab/care-commons/internal/telemetry/metrics"
	"github.com/neighborhood-lab/care-commons/internal/telemetry/tracing"
)

// Setup initializes all telemetry components (logging, tracing, metrics)
// for the serve command. It returns the process logger and a single
// shutdown function that gracefully terminates tracing.
func Setup(ctx context.Context, cfg *config.Config, serviceName, serviceVersion, logLevel string) (*zap.Logger, func(), error) {
	logger, err := NewLogger(logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var tp *sdktrace.TracerProvider
	if cfg.OTel.Enabled {
		tP, err := tracing.SetupTracing(
			ctx,
			cfg.OTel.Exporter,
			cfg.OTel.Endpoint,
			serviceName,
			serviceVersion,
			cfg.OTel.TLS.InsecureSkipVerify,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		tP.ForceFlush(ctx)
		tp = tP
		otel.SetTracerProvider(tp)
	}

	reg := metrics.Init(cfg)
	if err := metrics.SetupPrometheus(reg); err != nil {
		return nil, nil, fmt.Errorf("failed to setup prometheus: %w", err)
	}

	if tp == nil {
		return logger, func() {}, nil
	}
	return logger, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown OpenTelemetry tracer", zap.Error(err))
		}
	}, nil
}
