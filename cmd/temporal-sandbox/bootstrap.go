package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"

	"github.com/bo-socayo/temporal-sandbox/pkg/config"
	"github.com/bo-socayo/temporal-sandbox/pkg/orchestration"
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

const serviceName = "temporal-sandbox"

// app holds what every subcommand needs. close releases it in reverse
// order of acquisition.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	closers []func() error
}

func loadApp(cfgPath string) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("service", serviceName).Logger()

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("failed to release resource")
		}
	}
}

// dialTemporal installs tracing and connects the Temporal client.
func (a *app) dialTemporal() (client.Client, error) {
	shutdownTracing, err := telemetry.SetupTracing(telemetry.TracingConfig{
		Enabled:     a.cfg.Tracing.Enabled,
		Exporter:    a.cfg.Tracing.Exporter,
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(func() error { return shutdownTracing(context.Background()) })

	tracingInterceptor, err := telemetry.NewTracingInterceptor()
	if err != nil {
		return nil, err
	}

	c, err := orchestration.Dial(a.cfg.Temporal, a.logger, tracingInterceptor)
	if err != nil {
		return nil, err
	}
	a.onClose(func() error {
		c.Close()
		return nil
	})
	return c, nil
}
