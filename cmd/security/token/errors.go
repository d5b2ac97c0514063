package token

import "errors"

// Public, stable errors for callers.
var (
	// ErrConfig is returned when codec construction fails (missing, short,
	// or non-distinct signing keys, non-positive lifetimes). This is fatal
	// at startup, never a per-request outcome.
	ErrConfig = errors.New("invalid codec config")

	// ErrMalformed is returned when a credential cannot be parsed at all.
	ErrMalformed = errors.New("malformed credential")

	// ErrInvalidSignature is returned when the signature check fails.
	ErrInvalidSignature = errors.New("invalid credential signature")

	// ErrExpired is returned when the credential is past its expiry.
	ErrExpired = errors.New("credential expired")

	// ErrInvalidToken is returned for structurally valid credentials that
	// carry the wrong kind, a foreign issuer, or no subject.
	ErrInvalidToken = errors.New("invalid credential")
)
