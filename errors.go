package cms

import "errors"

// Sentinel errors returned by the store, auth guard, and asset store.
// Handlers translate these into HTTP status codes in httpErrorHandler.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness
	// constraint (duplicate slug, name, or username).
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned for both an unknown username and
	// a wrong password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a request lacks a live session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")

	// ErrAssetUpstream is returned when the asset store rejects an
	// upload. Asset deletion failures are never surfaced through it.
	ErrAssetUpstream = errors.New("asset store failure")
)
