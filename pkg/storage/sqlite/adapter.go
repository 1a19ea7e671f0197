// Package sqlite stores execution records in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

// AdapterType is the storage.StorageAdapterConfig.AdapterType of this package.
const AdapterType = "sqlite"

const memoryDSN = ":memory:"

func init() {
	storage.RegisterAdapterFactory(AdapterType, func(config storage.StorageAdapterConfig) (storage.StorageAdapter, error) {
		return NewSQLiteStorageAdapter(config)
	})
}

// SQLiteStorageAdapter implements storage.StorageAdapter for SQLite
type SQLiteStorageAdapter struct {
	db         *sql.DB
	config     storage.StorageAdapterConfig
	tableName  string
	insertStmt *sql.Stmt
	listStmt   *sql.Stmt
	healthStmt *sql.Stmt
}

var _ storage.StorageAdapter = (*SQLiteStorageAdapter)(nil)

// NewSQLiteStorageAdapter opens the database, runs migrations and prepares
// statements.
func NewSQLiteStorageAdapter(config storage.StorageAdapterConfig) (*SQLiteStorageAdapter, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = storage.DefaultStorageAdapterConfig().TablePrefix
	}

	db, err := sql.Open("sqlite", dataSourceName(config.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// every connection to :memory: is a separate database
	if dataSourceName(config.ConnectionString) == memoryDSN {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := RunMigrations(db, config.TablePrefix); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	adapter := &SQLiteStorageAdapter{
		db:        db,
		config:    config,
		tableName: storage.TableName(config.TablePrefix),
	}

	if err := adapter.prepareStatements(); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return adapter, nil
}

// dataSourceName adds the pragmas file databases need for concurrent writers.
func dataSourceName(connectionString string) string {
	switch {
	case connectionString == "":
		return memoryDSN
	case connectionString == memoryDSN, strings.Contains(connectionString, "_pragma"):
		return connectionString
	}

	sep := "?"
	if strings.Contains(connectionString, "?") {
		sep = "&"
	}
	return connectionString + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *SQLiteStorageAdapter) prepareStatements() error {
	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (
			workflow_id, run_id, mode, status, input, result, error, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.tableName)

	listSQL := fmt.Sprintf(`
		SELECT id, workflow_id, run_id, mode, status, input, result, error, recorded_at
		FROM %s
		ORDER BY id DESC
		LIMIT ?
	`, s.tableName)

	var err error
	s.insertStmt, err = s.db.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(listSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.healthStmt, err = s.db.Prepare("SELECT 1")
	if err != nil {
		return fmt.Errorf("failed to prepare health statement: %w", err)
	}

	return nil
}

// StoreExecutionRecord appends record, retrying while the database is busy.
func (s *SQLiteStorageAdapter) StoreExecutionRecord(ctx context.Context, record *storage.ExecutionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
		}

		result, err := s.insertStmt.ExecContext(ctx,
			record.WorkflowID, record.RunID, string(record.Mode), string(record.Status),
			record.Input, record.Result, record.Error, record.RecordedAt.UTC(),
		)
		if err == nil {
			if id, idErr := result.LastInsertId(); idErr == nil {
				record.ID = id
			}
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
func (s *SQLiteStorageAdapter) ListExecutionRecords(ctx context.Context, limit int) ([]storage.ExecutionRecord, error) {
	rows, err := s.listStmt.QueryContext(ctx, storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []storage.ExecutionRecord
	for rows.Next() {
		var (
			record                      storage.ExecutionRecord
			runID, input, result, errMsg sql.NullString
			mode, status                string
		)
		if err := rows.Scan(&record.ID, &record.WorkflowID, &runID, &mode, &status,
			&input, &result, &errMsg, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.RunID = runID.String
		record.Mode = storage.Mode(mode)
		record.Status = storage.Status(status)
		record.Input = input.String
		record.Result = result.String
		record.Error = errMsg.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// CleanupOldRecords removes records older than the cutoff time
func (s *SQLiteStorageAdapter) CleanupOldRecords(ctx context.Context, cutoffTime time.Time) (int64, error) {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE recorded_at < ?", s.tableName)

	result, err := s.db.ExecContext(ctx, deleteSQL, cutoffTime.UTC())
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
func (s *SQLiteStorageAdapter) IsHealthy(ctx context.Context) error {
	var result int
	if err := s.healthStmt.QueryRowContext(ctx).Scan(&result); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close closes the prepared statements and the database
func (s *SQLiteStorageAdapter) Close() error {
	var firstErr error

	for _, stmt := range []*sql.Stmt{s.insertStmt, s.listStmt, s.healthStmt} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// GetDB returns the underlying database connection (for testing)
func (s *SQLiteStorageAdapter) GetDB() *sql.DB {
	return s.db
}

// isRetryableError reports SQLITE_BUSY and SQLITE_LOCKED, including their
// extended codes.
func isRetryableError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy")
}
