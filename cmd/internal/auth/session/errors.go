package session

import "errors"

var (
	// ErrInvalidCredentials is returned for a failed login or password check.
	// It is deliberately identical for unknown identifiers and wrong
	// passwords so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a credential fails verification:
	// bad signature, wrong kind, foreign issuer, or malformed input.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpired is returned when a structurally valid credential is past
	// its embedded expiry.
	ErrExpired = errors.New("token expired")

	// ErrTokenReused is returned when a verified refresh credential no
	// longer matches the stored one. The user's credentials are invalidated
	// when this is detected.
	ErrTokenReused = errors.New("refresh token reuse detected")

	// ErrUserNotFound is returned when a credential's subject no longer
	// resolves to a user.
	ErrUserNotFound = errors.New("user not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
