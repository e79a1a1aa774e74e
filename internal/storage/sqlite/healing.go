package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

type sessionRepo struct {
	tx *sql.Tx
}

func (r *sessionRepo) Create(ctx context.Context, s *domain.HealingSession) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO healing_sessions (
			id, status, total_selectors, successful_heals, failed_heals,
			average_confidence, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Status, s.TotalSelectors, s.SuccessfulHeals, s.FailedHeals,
		s.AverageConfidence, s.StartedAt, s.CompletedAt)
	return err
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*domain.HealingSession, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, status, total_selectors, successful_heals, failed_heals,
			average_confidence, started_at, completed_at
		FROM healing_sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*domain.HealingSession, error) {
	s := &domain.HealingSession{}
	var completedAt sql.NullTime

	err := row.Scan(&s.ID, &s.Status, &s.TotalSelectors, &s.SuccessfulHeals,
		&s.FailedHeals, &s.AverageConfidence, &s.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	return s, nil
}

func (r *sessionRepo) Update(ctx context.Context, s *domain.HealingSession) error {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE healing_sessions SET
			status = ?, total_selectors = ?, successful_heals = ?,
			failed_heals = ?, average_confidence = ?, completed_at = ?
		WHERE id = ?
	`, s.Status, s.TotalSelectors, s.SuccessfulHeals, s.FailedHeals,
		s.AverageConfidence, s.CompletedAt, s.ID)
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

func (r *sessionRepo) List(ctx context.Context, opts storage.ListOptions) ([]*domain.HealingSession, error) {
	query := `
		SELECT id, status, total_selectors, successful_heals, failed_heals,
			average_confidence, started_at, completed_at
		FROM healing_sessions`
	args := []any{}
	if len(opts.SessionStatuses) > 0 {
		query += " WHERE status IN ("
		for i, st := range opts.SessionStatuses {
			if i > 0 {
				query += ", "
			}
			query += "?"
			args = append(args, st)
		}
		query += ")"
	}
	query += " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HealingSession
	for rows.Next() {
		s := &domain.HealingSession{}
		var completedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Status, &s.TotalSelectors, &s.SuccessfulHeals,
			&s.FailedHeals, &s.AverageConfidence, &s.StartedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			s.CompletedAt = &completedAt.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type resultRepo struct {
	tx *sql.Tx
}

func (r *resultRepo) Create(ctx context.Context, hr *domain.HealingResult) error {
	var healed any
	if hr.HealedSelectorValue != "" {
		healed = hr.HealedSelectorValue
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO healing_results (
			id, session_id, selector_id, original_value, healed_value,
			status, reason, confidence_score, healing_time_ms, attempts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, hr.ID, hr.SessionID, hr.SelectorID, hr.OriginalSelectorValue, healed,
		hr.Status, hr.Reason, hr.ConfidenceScore, hr.HealingTimeMS, hr.Attempts,
		hr.CreatedAt)
	return err
}

func (r *resultRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.HealingResult, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, session_id, selector_id, original_value, healed_value,
			status, reason, confidence_score, healing_time_ms, attempts, created_at
		FROM healing_results WHERE session_id = ? ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HealingResult
	for rows.Next() {
		hr := &domain.HealingResult{}
		var healed, reason sql.NullString
		if err := rows.Scan(&hr.ID, &hr.SessionID, &hr.SelectorID,
			&hr.OriginalSelectorValue, &healed, &hr.Status, &reason,
			&hr.ConfidenceScore, &hr.HealingTimeMS, &hr.Attempts, &hr.CreatedAt); err != nil {
			return nil, err
		}
		if healed.Valid {
			hr.HealedSelectorValue = healed.String
		}
		if reason.Valid {
			hr.Reason = domain.FailureReason(reason.String)
		}
		out = append(out, hr)
	}
	return out, rows.Err()
}
