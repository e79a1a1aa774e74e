package service

import (
	"context"
	"fmt"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

// SessionService manages healing sessions for suite runs that trigger
// multiple healing attempts together.
type SessionService struct {
	storage storage.Storage
}

// NewSessions creates a SessionService.
func NewSessions(store storage.Storage) *SessionService {
	return &SessionService{storage: store}
}

// Open starts a new running healing session.
func (s *SessionService) Open(ctx context.Context) (*domain.HealingSession, error) {
	sess := domain.NewHealingSession()

	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Sessions().Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return sess, nil
}

// Close finalizes a session once all its attempts have resolved.
func (s *SessionService) Close(ctx context.Context, id string) (*domain.HealingSession, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sess, err := uow.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Close(); err != nil {
		return nil, err
	}
	if err := uow.Sessions().Update(ctx, sess); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return sess, nil
}

// Get retrieves a session with its results.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.HealingSession, []*domain.HealingResult, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sess, err := uow.Sessions().Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	results, err := uow.Results().ListBySession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sess, results, nil
}

// List lists sessions, most recent first.
func (s *SessionService) List(ctx context.Context, opts storage.ListOptions) ([]*domain.HealingSession, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Sessions().List(ctx, opts)
}
