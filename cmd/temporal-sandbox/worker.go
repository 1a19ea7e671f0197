package main

import (
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"

	"github.com/bo-socayo/temporal-sandbox/pkg/orchestration"
)

func newWorkerCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the ExampleWorkflow worker until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			c, err := a.dialTemporal()
			if err != nil {
				return err
			}

			w := orchestration.NewWorker(c, a.cfg.Temporal)
			a.logger.Info().Str("task_queue", a.cfg.Temporal.TaskQueue).Msg("starting worker")
			return w.Run(worker.InterruptCh())
		},
	}
}
