package storage

import (
	"context"
	"time"
)

// StorageAdapter defines the interface for persisting execution records
type StorageAdapter interface {
	// StoreExecutionRecord appends a record.
	StoreExecutionRecord(ctx context.Context, record *ExecutionRecord) error

	// ListExecutionRecords returns up to limit records, newest first.
	ListExecutionRecords(ctx context.Context, limit int) ([]ExecutionRecord, error)

	// CleanupOldRecords deletes records recorded before cutoffTime and
	// returns how many were removed.
	CleanupOldRecords(ctx context.Context, cutoffTime time.Time) (int64, error)

	// Health check
	IsHealthy(ctx context.Context) error

	// Close releases any resources held by the adapter
	Close() error
}

// StorageAdapterConfig provides configuration for storage adapters
type StorageAdapterConfig struct {
	EnableStorage    bool          `json:"enable_storage" yaml:"enable_storage" mapstructure:"enable_storage"`
	AdapterType      string        `json:"adapter_type" yaml:"adapter_type" mapstructure:"adapter_type"` // sqlite, postgres
	ConnectionString string        `json:"connection_string" yaml:"connection_string" mapstructure:"connection_string"`
	TablePrefix      string        `json:"table_prefix" yaml:"table_prefix" mapstructure:"table_prefix"`
	MaxRetries       int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay       time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// DefaultStorageAdapterConfig returns a config with sensible defaults
func DefaultStorageAdapterConfig() StorageAdapterConfig {
	return StorageAdapterConfig{
		EnableStorage:    false,
		AdapterType:      "sqlite",
		ConnectionString: "temporal-sandbox.db",
		TablePrefix:      "workflow_execution",
		MaxRetries:       3,
		RetryDelay:       100 * time.Millisecond,
	}
}

// TableName returns the records table for a prefix.
func TableName(prefix string) string {
	return prefix + "_records"
}

// NormalizeLimit clamps a list limit to [1, MaxListLimit], using
// DefaultListLimit for non-positive values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// List limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)
