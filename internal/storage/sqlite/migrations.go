package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Selectors table. Rows are deactivated, never deleted.
		`CREATE TABLE IF NOT EXISTS selectors (
			id TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			type TEXT NOT NULL,
			confidence_score REAL NOT NULL DEFAULT 0.5,
			confidence_level TEXT NOT NULL DEFAULT 'medium',
			usage_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Superseded selector values, kept for auditability.
		`CREATE TABLE IF NOT EXISTS selector_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			selector_id TEXT NOT NULL,
			value TEXT NOT NULL,
			type TEXT NOT NULL,
			confidence REAL NOT NULL,
			replaced_at DATETIME NOT NULL,
			FOREIGN KEY (selector_id) REFERENCES selectors(id) ON DELETE CASCADE
		)`,

		// Per-value usage counters backing historical reliability.
		`CREATE TABLE IF NOT EXISTS selector_value_stats (
			selector_id TEXT NOT NULL,
			value TEXT NOT NULL,
			uses INTEGER NOT NULL DEFAULT 0,
			successes INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (selector_id, value),
			FOREIGN KEY (selector_id) REFERENCES selectors(id) ON DELETE CASCADE
		)`,

		// Healing sessions table
		`CREATE TABLE IF NOT EXISTS healing_sessions (
			id TEXT PRIMARY KEY,
			status INTEGER NOT NULL DEFAULT 10,
			total_selectors INTEGER NOT NULL DEFAULT 0,
			successful_heals INTEGER NOT NULL DEFAULT 0,
			failed_heals INTEGER NOT NULL DEFAULT 0,
			average_confidence REAL NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,

		// Healing results table. Immutable once written.
		`CREATE TABLE IF NOT EXISTS healing_results (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			selector_id TEXT NOT NULL,
			original_value TEXT NOT NULL,
			healed_value TEXT,
			status TEXT NOT NULL,
			reason TEXT,
			confidence_score REAL NOT NULL DEFAULT 0,
			healing_time_ms INTEGER NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES healing_sessions(id) ON DELETE CASCADE
		)`,

		// Append-only run history
		`CREATE TABLE IF NOT EXISTS test_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			test_id TEXT NOT NULL,
			run_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ms INTEGER,
			environment TEXT,
			started_at DATETIME NOT NULL
		)`,

		// Recomputed flaky classifications
		`CREATE TABLE IF NOT EXISTS flaky_tests (
			test_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			flakiness_score REAL NOT NULL DEFAULT 0,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			last_evaluated_at DATETIME NOT NULL
		)`,

		// Quarantine entries
		`CREATE TABLE IF NOT EXISTS quarantine_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			test_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			entered_at DATETIME NOT NULL,
			exit_criteria TEXT NOT NULL,
			exited_at DATETIME
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_selector_history_selector
			ON selector_history(selector_id)`,
		`CREATE INDEX IF NOT EXISTS idx_healing_results_session
			ON healing_results(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_test_runs_test
			ON test_runs(test_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_quarantine_test_active
			ON quarantine_entries(test_id, exited_at)`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
