package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "cleanup"}, names)

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	flag := serve.Flags().Lookup("worker")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestCleanupRecords(t *testing.T) {
	cfg := storage.DefaultStorageAdapterConfig()
	cfg.EnableStorage = true
	cfg.ConnectionString = filepath.Join(t.TempDir(), "sandbox.db")

	adapter, err := storage.CreateStorageAdapter(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, adapter.StoreExecutionRecord(ctx, &storage.ExecutionRecord{
		WorkflowID: "example-workflow-old",
		Mode:       storage.ModeSync,
		Status:     storage.StatusCompleted,
		RecordedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, adapter.StoreExecutionRecord(ctx, &storage.ExecutionRecord{
		WorkflowID: "example-workflow-new",
		Mode:       storage.ModeSync,
		Status:     storage.StatusCompleted,
		RecordedAt: time.Now(),
	}))
	require.NoError(t, adapter.Close())

	removed, err := cleanupRecords(ctx, cfg, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestCleanupRecords_StorageDisabled(t *testing.T) {
	_, err := cleanupRecords(context.Background(), storage.DefaultStorageAdapterConfig(), time.Hour)
	assert.ErrorContains(t, err, "storage is disabled")
}

func TestCleanupRecords_RejectsNonPositiveAge(t *testing.T) {
	_, err := cleanupRecords(context.Background(), storage.DefaultStorageAdapterConfig(), 0)
	assert.ErrorContains(t, err, "--older-than must be positive")
}
