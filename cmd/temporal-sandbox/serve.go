package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bo-socayo/temporal-sandbox/pkg/cache"
	"github.com/bo-socayo/temporal-sandbox/pkg/events"
	"github.com/bo-socayo/temporal-sandbox/pkg/orchestration"
	"github.com/bo-socayo/temporal-sandbox/pkg/server"
	"github.com/bo-socayo/temporal-sandbox/pkg/service"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
	_ "github.com/bo-socayo/temporal-sandbox/pkg/storage/postgres" // registers the postgres adapter
	_ "github.com/bo-socayo/temporal-sandbox/pkg/storage/sqlite"   // registers the sqlite adapter
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	var embedWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, *cfgPath, embedWorker)
		},
	}
	cmd.Flags().BoolVar(&embedWorker, "worker", true, "Run the workflow worker in the same process")
	return cmd
}

func runServer(ctx context.Context, cfgPath string, embedWorker bool) error {
	a, err := loadApp(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = a.logger.WithContext(ctx)

	c, err := a.dialTemporal()
	if err != nil {
		return err
	}

	if embedWorker {
		w := orchestration.NewWorker(c, a.cfg.Temporal)
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
		a.onClose(func() error {
			w.Stop()
			return nil
		})
		a.logger.Info().Str("task_queue", a.cfg.Temporal.TaskQueue).Msg("✅ embedded worker started")
	}

	metrics := telemetry.NewMetrics()
	opts := service.Options{
		TaskQueue:        a.cfg.Temporal.TaskQueue,
		ExecutionTimeout: a.cfg.Workflow.ExecutionTimeout,
		Metrics:          metrics,
	}

	adapter, err := storage.InitializeStorageAdapter(a.cfg.Storage)
	if err != nil {
		return err
	}
	if adapter != nil {
		a.onClose(adapter.Close)
		opts.Recorder = adapter
		a.logger.Info().Str("adapter", a.cfg.Storage.AdapterType).Msg("execution storage enabled")
	}

	if a.cfg.Cache.RedisAddr != "" {
		resultCache, err := cache.Connect(ctx, a.cfg.Cache.RedisAddr, a.cfg.Cache.TTL)
		if err != nil {
			return err
		}
		a.onClose(resultCache.Close)
		opts.Cache = resultCache
		a.logger.Info().Str("addr", a.cfg.Cache.RedisAddr).Msg("result cache enabled")
	}

	if a.cfg.Events.AMQPURL != "" {
		publisher, err := events.Dial(a.cfg.Events.AMQPURL, a.cfg.Events.Exchange, a.logger)
		if err != nil {
			return err
		}
		a.onClose(publisher.Close)
		opts.Publisher = publisher
	}

	api := server.NewWebAPI(server.Config{
		Addr:            a.cfg.Server.Addr,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Workflow: service.NewWorkflowClientService(c, opts),
			Metrics:  metrics,
			Logger:   a.logger,
		},
	})
	return api.Start(ctx)
}
