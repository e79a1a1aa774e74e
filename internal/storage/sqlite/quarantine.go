package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testmend/internal/domain"
)

type quarantineRepo struct {
	tx *sql.Tx
}

func (r *quarantineRepo) Create(ctx context.Context, q *domain.QuarantineEntry) error {
	res, err := r.tx.ExecContext(ctx, `
		INSERT INTO quarantine_entries (test_id, reason, entered_at, exit_criteria, exited_at)
		VALUES (?, ?, ?, ?, ?)
	`, q.TestID, q.Reason, q.EnteredAt, q.ExitCriteria, q.ExitedAt)
	if err != nil {
		return err
	}
	q.ID, err = res.LastInsertId()
	return err
}

func (r *quarantineRepo) ActiveByTest(ctx context.Context, testID string) (*domain.QuarantineEntry, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, test_id, reason, entered_at, exit_criteria, exited_at
		FROM quarantine_entries
		WHERE test_id = ? AND exited_at IS NULL
		ORDER BY id DESC LIMIT 1
	`, testID)
	return scanQuarantine(row)
}

func scanQuarantine(row *sql.Row) (*domain.QuarantineEntry, error) {
	q := &domain.QuarantineEntry{}
	var exitedAt sql.NullTime

	err := row.Scan(&q.ID, &q.TestID, &q.Reason, &q.EnteredAt, &q.ExitCriteria, &exitedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if exitedAt.Valid {
		q.ExitedAt = &exitedAt.Time
	}
	return q, nil
}

func (r *quarantineRepo) Update(ctx context.Context, q *domain.QuarantineEntry) error {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE quarantine_entries SET reason = ?, exit_criteria = ?, exited_at = ?
		WHERE id = ?
	`, q.Reason, q.ExitCriteria, q.ExitedAt, q.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *quarantineRepo) ListActive(ctx context.Context) ([]*domain.QuarantineEntry, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, test_id, reason, entered_at, exit_criteria, exited_at
		FROM quarantine_entries WHERE exited_at IS NULL ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.QuarantineEntry
	for rows.Next() {
		q := &domain.QuarantineEntry{}
		var exitedAt sql.NullTime
		if err := rows.Scan(&q.ID, &q.TestID, &q.Reason, &q.EnteredAt,
			&q.ExitCriteria, &exitedAt); err != nil {
			return nil, err
		}
		if exitedAt.Valid {
			q.ExitedAt = &exitedAt.Time
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
