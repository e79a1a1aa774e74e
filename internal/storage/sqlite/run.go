package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testmend/internal/domain"
)

type runRepo struct {
	tx *sql.Tx
}

func (r *runRepo) Append(ctx context.Context, run *domain.TestRun) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO test_runs (test_id, run_id, outcome, duration_ms, environment, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.TestID, run.RunID, run.Outcome, run.DurationMS, run.Environment, run.StartedAt)
	return err
}

// Recent returns the last limit runs for a test, reordered oldest first so
// the detector can walk transitions in execution order.
func (r *runRepo) Recent(ctx context.Context, testID string, limit int) ([]domain.TestRun, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT test_id, run_id, outcome, duration_ms, environment, started_at
		FROM test_runs WHERE test_id = ? ORDER BY id DESC LIMIT ?
	`, testID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TestRun
	for rows.Next() {
		var run domain.TestRun
		var duration sql.NullInt64
		var environment sql.NullString
		if err := rows.Scan(&run.TestID, &run.RunID, &run.Outcome, &duration,
			&environment, &run.StartedAt); err != nil {
			return nil, err
		}
		if duration.Valid {
			run.DurationMS = &duration.Int64
		}
		if environment.Valid {
			run.Environment = environment.String
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse from newest-first to oldest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *runRepo) TestIDs(ctx context.Context) ([]string, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT DISTINCT test_id FROM test_runs ORDER BY test_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
