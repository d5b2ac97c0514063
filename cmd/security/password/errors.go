package password

import "errors"

// Sentinel errors callers can match with errors.Is. Policy violations
// map to user-facing validation failures; ErrInvalidHash means the
// stored hash string itself is unusable.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")
)
