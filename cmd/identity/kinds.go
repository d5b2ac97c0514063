package identity

import "errors"

// Error kinds. Stable values so callers can errors.Is against them and
// the HTTP layer can map each kind to a status code.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrTokenReused  = errors.New("token_reused")
)
