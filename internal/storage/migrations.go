package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: transactions and recurring patterns",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					name TEXT NOT NULL,
					merchant_name TEXT,
					amount TEXT NOT NULL,
					account_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,

				`CREATE TABLE IF NOT EXISTS recurring_patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					merchant_key TEXT UNIQUE NOT NULL,
					display_name TEXT NOT NULL,
					expense_type TEXT NOT NULL,
					priority TEXT NOT NULL,
					confidence TEXT NOT NULL,
					frequency_days REAL NOT NULL,
					frequency_stddev_days REAL,
					typical_amount TEXT NOT NULL,
					amount_variance_pct REAL NOT NULL DEFAULT 0,
					min_amount TEXT NOT NULL,
					max_amount TEXT NOT NULL,
					occurrence_count INTEGER NOT NULL,
					first_seen DATETIME NOT NULL,
					last_seen DATETIME NOT NULL,
					last_amount TEXT NOT NULL,
					typical_day_of_month INTEGER,
					trend TEXT,
					next_predicted_date DATETIME,
					next_predicted_amount TEXT,
					predicted_min_amount TEXT,
					predicted_max_amount TEXT,
					prediction_confidence TEXT,
					user_confirmed INTEGER NOT NULL DEFAULT 0,
					user_excluded INTEGER NOT NULL DEFAULT 0,
					tracked INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_patterns_tracked ON recurring_patterns(tracked, user_excluded)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add anomalies with dedupe index",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS anomalies (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					pattern_id INTEGER NOT NULL REFERENCES recurring_patterns(id),
					anomaly_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					detected_date DATE NOT NULL,
					transaction_id TEXT,
					expected_value TEXT,
					actual_value TEXT,
					user_acknowledged INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// NULL transaction ids must still dedupe, so the unique
				// index coalesces them to an empty string.
				`CREATE UNIQUE INDEX idx_anomalies_dedupe
					ON anomalies(pattern_id, anomaly_type, detected_date, COALESCE(transaction_id, ''))`,
				`CREATE INDEX idx_anomalies_unacked ON anomalies(user_acknowledged)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add merchant overrides for user corrections",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS merchant_overrides (
					merchant_key TEXT PRIMARY KEY,
					is_recurring INTEGER NOT NULL,
					note TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			migration.Version, migration.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (s *SQLiteStorage) schemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_migrations`,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}
