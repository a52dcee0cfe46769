package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrModelUnavailable is returned when a model call fails to produce a response
// (network, quota or timeout). The turn can be retried.
var ErrModelUnavailable = errors.New("model unavailable")

// ErrInvalidScript is returned when a Script cannot drive a session.
var ErrInvalidScript = errors.New("invalid script")

// ErrInvalidState is returned when a State breaks its invariants (e.g. a corrupted store entry).
var ErrInvalidState = errors.New("invalid state")
