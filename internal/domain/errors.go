package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a state transition is not allowed.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidArgument is returned when an argument is invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned when trying to create a duplicate entity.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoCandidates is returned when the generator produces no candidate
	// selectors for a DOM snapshot.
	ErrNoCandidates = errors.New("no candidate selectors found")

	// ErrLowConfidence is returned when the best candidate scores below the
	// healing threshold.
	ErrLowConfidence = errors.New("best candidate below healing threshold")

	// ErrSelectorInactive is returned when healing is attempted on a
	// deactivated selector.
	ErrSelectorInactive = errors.New("selector is inactive")

	// ErrInsufficientHistory is returned when a test's run window is too
	// small to classify. Callers map this to the monitoring status rather
	// than surfacing it.
	ErrInsufficientHistory = errors.New("insufficient run history")

	// ErrSessionClosed is returned when a healing result is recorded against
	// a session that has already completed.
	ErrSessionClosed = errors.New("healing session already closed")
)
