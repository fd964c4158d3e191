package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is one versioned schema change.
type Migration struct {
	Version string
	SQL     string
}

// Migrations lists the schema in apply order.
var Migrations = []Migration{
	{
		Version: "001_audit_log",
		SQL: `CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			emergency_id TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	},
	{
		Version: "002_audit_log_created_at_idx",
		SQL:     `CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at DESC)`,
	},
}

// RunMigrations applies every migration not yet recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB, migrations []Migration, logger *slog.Logger) error {
	logger.Info("Checking for pending database migrations")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	pendingCount := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		pendingCount++
		logger.Info("Applying migration", "version", m.Version)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}

	if pendingCount == 0 {
		logger.Info("No pending migrations found")
	} else {
		logger.Info("Migrations completed", "count", pendingCount)
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
