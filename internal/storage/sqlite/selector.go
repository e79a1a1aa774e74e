package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

type selectorRepo struct {
	tx *sql.Tx
}

func (r *selectorRepo) Create(ctx context.Context, sel *domain.Selector) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO selectors (
			id, value, type, confidence_score, confidence_level,
			usage_count, success_count, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sel.ID, sel.Value, sel.Type, sel.ConfidenceScore, sel.ConfidenceLevel,
		sel.UsageCount, sel.SuccessCount, sel.IsActive, sel.CreatedAt, sel.UpdatedAt)
	return err
}

func (r *selectorRepo) Get(ctx context.Context, id string) (*domain.Selector, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, value, type, confidence_score, confidence_level,
			usage_count, success_count, is_active, created_at, updated_at
		FROM selectors WHERE id = ?
	`, id)

	sel := &domain.Selector{}
	err := row.Scan(&sel.ID, &sel.Value, &sel.Type, &sel.ConfidenceScore,
		&sel.ConfidenceLevel, &sel.UsageCount, &sel.SuccessCount, &sel.IsActive,
		&sel.CreatedAt, &sel.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sel, nil
}

func (r *selectorRepo) Update(ctx context.Context, sel *domain.Selector) error {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE selectors SET
			value = ?, type = ?, confidence_score = ?, confidence_level = ?,
			usage_count = ?, success_count = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, sel.Value, sel.Type, sel.ConfidenceScore, sel.ConfidenceLevel,
		sel.UsageCount, sel.SuccessCount, sel.IsActive, sel.UpdatedAt, sel.ID)
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

func (r *selectorRepo) List(ctx context.Context, opts storage.ListOptions) ([]*domain.Selector, error) {
	query := `
		SELECT id, value, type, confidence_score, confidence_level,
			usage_count, success_count, is_active, created_at, updated_at
		FROM selectors ORDER BY updated_at DESC`
	args := []any{}
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Selector
	for rows.Next() {
		sel := &domain.Selector{}
		if err := rows.Scan(&sel.ID, &sel.Value, &sel.Type, &sel.ConfidenceScore,
			&sel.ConfidenceLevel, &sel.UsageCount, &sel.SuccessCount, &sel.IsActive,
			&sel.CreatedAt, &sel.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}

func (r *selectorRepo) AddHistory(ctx context.Context, entry *domain.SelectorHistoryEntry) error {
	res, err := r.tx.ExecContext(ctx, `
		INSERT INTO selector_history (selector_id, value, type, confidence, replaced_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.SelectorID, entry.Value, entry.Type, entry.Confidence, entry.ReplacedAt)
	if err != nil {
		return err
	}
	entry.ID, err = res.LastInsertId()
	return err
}

func (r *selectorRepo) History(ctx context.Context, selectorID string) ([]*domain.SelectorHistoryEntry, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, selector_id, value, type, confidence, replaced_at
		FROM selector_history WHERE selector_id = ? ORDER BY id DESC
	`, selectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SelectorHistoryEntry
	for rows.Next() {
		e := &domain.SelectorHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.SelectorID, &e.Value, &e.Type,
			&e.Confidence, &e.ReplacedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *selectorRepo) ValueStats(ctx context.Context, selectorID, value string) (int, int, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT successes, uses FROM selector_value_stats
		WHERE selector_id = ? AND value = ?
	`, selectorID, value)

	var successes, uses int
	err := row.Scan(&successes, &uses)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return successes, uses, nil
}

func (r *selectorRepo) BumpValueStats(ctx context.Context, selectorID, value string, succeeded bool) error {
	success := 0
	if succeeded {
		success = 1
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO selector_value_stats (selector_id, value, uses, successes)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (selector_id, value) DO UPDATE SET
			uses = uses + 1, successes = successes + excluded.successes
	`, selectorID, value, success)
	return err
}
