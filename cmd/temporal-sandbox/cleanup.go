package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

func newCleanupCmd(cfgPath *string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete execution records older than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			removed, err := cleanupRecords(cmd.Context(), a.cfg.Storage, olderThan)
			if err != nil {
				return err
			}
			a.logger.Info().Int64("removed", removed).Dur("older_than", olderThan).Msg("🧹 cleaned up execution records")
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of the records to delete")
	return cmd
}

func cleanupRecords(ctx context.Context, cfg storage.StorageAdapterConfig, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("--older-than must be positive")
	}

	adapter, err := storage.InitializeStorageAdapter(cfg)
	if err != nil {
		return 0, err
	}
	if adapter == nil {
		return 0, errors.New("storage is disabled; set storage.enable_storage")
	}
	defer adapter.Close()

	removed, err := adapter.CleanupOldRecords(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	return removed, nil
}
