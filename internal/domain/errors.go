package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// roster or row does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing acting staff, malformed import file).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a roster with the requested name already exists.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrIllegalTransition is returned when a row's current stage does not satisfy
// the precondition of the requested transition. The sync engine reports it as
// a per-row skip rather than failing the batch.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrUnavailable is returned when the roster store cannot be reached or
// rejects the configured credentials. Fatal for the whole operation.
// Handlers should map this to HTTP 503.
var ErrUnavailable = errors.New("roster store unavailable")

// ErrRateLimited is returned when the roster store refuses work because a
// quota or connection limit was hit. Callers should retry the whole batch later.
// Handlers should map this to HTTP 429.
var ErrRateLimited = errors.New("roster store rate limit exceeded")
