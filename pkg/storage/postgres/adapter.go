// Package postgres stores execution records in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

// AdapterType is the storage.StorageAdapterConfig.AdapterType of this package.
const AdapterType = "postgres"

func init() {
	storage.RegisterAdapterFactory(AdapterType, func(config storage.StorageAdapterConfig) (storage.StorageAdapter, error) {
		return NewPostgresStorageAdapter(context.Background(), config)
	})
}

// PostgresStorageAdapter implements storage.StorageAdapter for PostgreSQL
type PostgresStorageAdapter struct {
	db        *sql.DB
	config    storage.StorageAdapterConfig
	tableName string
}

var _ storage.StorageAdapter = (*PostgresStorageAdapter)(nil)

// NewPostgresStorageAdapter connects with config.ConnectionString and
// initializes the schema.
func NewPostgresStorageAdapter(ctx context.Context, config storage.StorageAdapterConfig) (*PostgresStorageAdapter, error) {
	db, err := sql.Open("pgx", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}

	adapter, err := NewPostgresStorageAdapterWithDB(ctx, db, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return adapter, nil
}

// NewPostgresStorageAdapterWithDB uses an already opened database. The
// adapter owns db afterwards and closes it on Close.
func NewPostgresStorageAdapterWithDB(ctx context.Context, db *sql.DB, config storage.StorageAdapterConfig) (*PostgresStorageAdapter, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = storage.DefaultStorageAdapterConfig().TablePrefix
	}

	adapter := &PostgresStorageAdapter{
		db:        db,
		config:    config,
		tableName: storage.TableName(config.TablePrefix),
	}
	if err := adapter.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return adapter, nil
}

func (s *PostgresStorageAdapter) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			run_id TEXT,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			input TEXT,
			result TEXT,
			error TEXT,
			recorded_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[2]s_workflow ON %[1]s (workflow_id, run_id);
		CREATE INDEX IF NOT EXISTS idx_%[2]s_recorded_at ON %[1]s (recorded_at);
	`, s.tableName, s.config.TablePrefix))
	return err
}

// StoreExecutionRecord appends record, retrying serialization and
// connection failures.
func (s *PostgresStorageAdapter) StoreExecutionRecord(ctx context.Context, record *storage.ExecutionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (workflow_id, run_id, mode, status, input, result, error, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, s.tableName)

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		var id int64
		err := s.db.QueryRowContext(ctx, insertSQL,
			record.WorkflowID, record.RunID, string(record.Mode), string(record.Status),
			record.Input, record.Result, record.Error, record.RecordedAt,
		).Scan(&id)
		if err == nil {
			record.ID = id
			return nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return fmt.Errorf("failed to store record after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

// ListExecutionRecords returns the newest records first.
func (s *PostgresStorageAdapter) ListExecutionRecords(ctx context.Context, limit int) ([]storage.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, workflow_id, COALESCE(run_id, ''), mode, status,
			COALESCE(input, ''), COALESCE(result, ''), COALESCE(error, ''), recorded_at
		FROM %s
		ORDER BY id DESC
		LIMIT $1
	`, s.tableName), storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []storage.ExecutionRecord
	for rows.Next() {
		var (
			record       storage.ExecutionRecord
			mode, status string
		)
		if err := rows.Scan(&record.ID, &record.WorkflowID, &record.RunID, &mode, &status,
			&record.Input, &record.Result, &record.Error, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.Mode = storage.Mode(mode)
		record.Status = storage.Status(status)
		records = append(records, record)
	}

	return records, rows.Err()
}

// CleanupOldRecords removes records older than the cutoff time
func (s *PostgresStorageAdapter) CleanupOldRecords(ctx context.Context, cutoffTime time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE recorded_at < $1", s.tableName), cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// IsHealthy checks if the adapter is healthy
func (s *PostgresStorageAdapter) IsHealthy(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close closes the database
func (s *PostgresStorageAdapter) Close() error {
	return s.db.Close()
}

// isRetryableError reports serialization failures, deadlocks and
// connection exceptions.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	}
	return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
}
