package main

import (
	"context"
	"errors"

	"calc-history/internal/calculator"
	"calc-history/internal/config"
	"calc-history/internal/observability"
)

// initTelemetry starts the OTel providers selected by cfg and registers the
// domain metric instruments. The returned shutdown flushes every provider
// that was started.
func initTelemetry(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.TelemetryEnabled {
		traceShutdown, err := observability.InitTracing(ctx)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, traceShutdown)

		metricShutdown, err := observability.InitMetrics(ctx)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, metricShutdown)

		if cfg.OTelLogsEnabled {
			logShutdown, err := observability.InitLogging(ctx)
			if err != nil {
				return shutdown, err
			}
			shutdowns = append(shutdowns, logShutdown)
		}
	}

	// Instruments bind to whichever meter provider is global at this point,
	// the no-op one when telemetry is disabled.
	if err := calculator.InitMetrics(); err != nil {
		return shutdown, err
	}

	return shutdown, nil
}
