package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

type flakyRepo struct {
	tx *sql.Tx
}

func (r *flakyRepo) Upsert(ctx context.Context, ft *domain.FlakyTest) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO flaky_tests (test_id, status, flakiness_score, consecutive_failures, last_evaluated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (test_id) DO UPDATE SET
			status = excluded.status,
			flakiness_score = excluded.flakiness_score,
			consecutive_failures = excluded.consecutive_failures,
			last_evaluated_at = excluded.last_evaluated_at
	`, ft.TestID, ft.Status, ft.FlakinessScore, ft.ConsecutiveFailures, ft.LastEvaluatedAt)
	return err
}

func (r *flakyRepo) Get(ctx context.Context, testID string) (*domain.FlakyTest, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT test_id, status, flakiness_score, consecutive_failures, last_evaluated_at
		FROM flaky_tests WHERE test_id = ?
	`, testID)

	ft := &domain.FlakyTest{}
	err := row.Scan(&ft.TestID, &ft.Status, &ft.FlakinessScore,
		&ft.ConsecutiveFailures, &ft.LastEvaluatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ft, nil
}

func (r *flakyRepo) List(ctx context.Context, opts storage.ListOptions) ([]*domain.FlakyTest, error) {
	query := `
		SELECT test_id, status, flakiness_score, consecutive_failures, last_evaluated_at
		FROM flaky_tests`
	args := []any{}
	if len(opts.FlakyStatuses) > 0 {
		query += " WHERE status IN ("
		for i, st := range opts.FlakyStatuses {
			if i > 0 {
				query += ", "
			}
			query += "?"
			args = append(args, st)
		}
		query += ")"
	}
	query += " ORDER BY flakiness_score DESC, test_id"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.FlakyTest
	for rows.Next() {
		ft := &domain.FlakyTest{}
		if err := rows.Scan(&ft.TestID, &ft.Status, &ft.FlakinessScore,
			&ft.ConsecutiveFailures, &ft.LastEvaluatedAt); err != nil {
			return nil, err
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}
