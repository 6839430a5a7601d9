package models

import "errors"

// Error taxonomy returned by the engine. Callers match with errors.Is; the
// API layer maps each kind to a specific HTTP status so clients can render a
// per-kind message.
var (
	// ErrUnauthorized means the caller lacks permission for the action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition means a state machine precondition was violated.
	ErrInvalidTransition = errors.New("invalid transition")

	// Validation failures on trade creation.
	ErrInvalidHours       = errors.New("hours must be greater than zero")
	ErrSelfTrade          = errors.New("cannot trade with yourself")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// Swipe session misuse.
	ErrSessionEnded  = errors.New("session ended")
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrTradeClosed means a mutation was attempted on a terminal trade.
	ErrTradeClosed = errors.New("trade closed")

	// ErrServiceInTrade means a service cannot be re-enabled while a
	// non-terminal trade holds it.
	ErrServiceInTrade = errors.New("service is held by an open trade")

	// ErrUnavailable means the storage layer is unreachable. Callers should
	// retry with backoff; it is never swallowed by the engine.
	ErrUnavailable = errors.New("storage unavailable")
)
