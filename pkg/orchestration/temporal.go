// Package orchestration connects to Temporal and hosts the ExampleWorkflow
// worker.
package orchestration

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"

	"github.com/bo-socayo/temporal-sandbox/pkg/example"
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

// Config selects the Temporal frontend and the task queue.
type Config struct {
	HostPort      string        `mapstructure:"host_port"`
	Namespace     string        `mapstructure:"namespace"`
	TaskQueue     string        `mapstructure:"task_queue"`
	ActivityDelay time.Duration `mapstructure:"-"`
}

// DefaultConfig targets a local Temporal dev server.
func DefaultConfig() Config {
	return Config{
		HostPort:      client.DefaultHostPort,
		Namespace:     client.DefaultNamespace,
		TaskQueue:     example.TaskQueue,
		ActivityDelay: example.DefaultProcessDelay,
	}
}

// ClientOptions builds the client options shared by Dial and tests that run
// against a dev server. Interceptors that also implement
// interceptor.WorkerInterceptor apply to workers created from the client.
func ClientOptions(cfg Config, logger zerolog.Logger, interceptors ...interceptor.ClientInterceptor) client.Options {
	return client.Options{
		HostPort:     cfg.HostPort,
		Namespace:    cfg.Namespace,
		Logger:       telemetry.NewTemporalLogger(logger.With().Str("component", "temporal").Logger()),
		Interceptors: interceptors,
	}
}

// Dial connects to Temporal.
func Dial(cfg Config, logger zerolog.Logger, interceptors ...interceptor.ClientInterceptor) (client.Client, error) {
	c, err := client.Dial(ClientOptions(cfg, logger, interceptors...))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal at %s: %w", cfg.HostPort, err)
	}
	logger.Info().
		Str("host_port", cfg.HostPort).
		Str("namespace", cfg.Namespace).
		Msg("connected to Temporal")
	return c, nil
}

// NewWorker creates a worker on cfg.TaskQueue with ExampleWorkflow and its
// activities registered. The caller starts it with Run or Start.
func NewWorker(c client.Client, cfg Config) worker.Worker {
	taskQueue := cfg.TaskQueue
	if taskQueue == "" {
		taskQueue = example.TaskQueue
	}

	activities := example.NewActivities()
	if cfg.ActivityDelay > 0 {
		activities.Delay = cfg.ActivityDelay
	}

	w := worker.New(c, taskQueue, worker.Options{})
	example.Register(w, activities)
	return w
}
