package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

// createExecutionTableSQL defines the SQL schema for execution records
const createExecutionTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    workflow_id TEXT NOT NULL,
    run_id TEXT,
    mode TEXT NOT NULL,
    status TEXT NOT NULL,
    input TEXT,
    result TEXT,
    error TEXT,
    recorded_at TIMESTAMP NOT NULL
);`

// createIndexesSQL defines the indexes for lookups by workflow and age
const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_%s_workflow ON %s (workflow_id, run_id);
CREATE INDEX IF NOT EXISTS idx_%s_recorded_at ON %s (recorded_at);`

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

func getMigrations(tablePrefix string) []Migration {
	table := storage.TableName(tablePrefix)
	return []Migration{
		{
			Version:     1,
			Description: "Create workflow execution records table",
			SQL:         fmt.Sprintf(createExecutionTableSQL, table),
		},
		{
			Version:     2,
			Description: "Create indexes for workflow execution records",
			SQL:         fmt.Sprintf(createIndexesSQL, tablePrefix, table, tablePrefix, table),
		},
	}
}

func migrationsTable(tablePrefix string) string {
	return tablePrefix + "_schema_migrations"
}

func createMigrationsTable(db *sql.DB, tablePrefix string) error {
	createSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`, migrationsTable(tablePrefix))

	_, err := db.Exec(createSQL)
	return err
}

func getAppliedMigrations(db *sql.DB, tablePrefix string) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := db.Query(fmt.Sprintf("SELECT version FROM %s", migrationsTable(tablePrefix)))
	if err != nil {
		return applied, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return applied, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func recordMigration(db *sql.DB, tablePrefix string, migration Migration) error {
	_, err := db.Exec(
		fmt.Sprintf("INSERT INTO %s (version, description) VALUES (?, ?)", migrationsTable(tablePrefix)),
		migration.Version, migration.Description,
	)
	return err
}

// RunMigrations applies all pending migrations and returns the versions it applied.
func RunMigrations(db *sql.DB, tablePrefix string) ([]int, error) {
	if err := createMigrationsTable(db, tablePrefix); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(db, tablePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	var newlyApplied []int
	for _, migration := range getMigrations(tablePrefix) {
		if applied[migration.Version] {
			continue
		}

		if _, err := db.Exec(migration.SQL); err != nil {
			return newlyApplied, fmt.Errorf("failed to apply migration %d (%s): %w",
				migration.Version, migration.Description, err)
		}

		if err := recordMigration(db, tablePrefix, migration); err != nil {
			return newlyApplied, fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		newlyApplied = append(newlyApplied, migration.Version)
	}

	return newlyApplied, nil
}
