package identity

import (
	"errors"

	"vidtube/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string for a plaintext
// password, honoring the env-driven policy from cmd/security/password.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, not a weak fallback.
		return "", err
	}

	enc, err := cfg.Hash(plain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too short"}
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too long"}
		case errors.Is(err, password.ErrWeakPassword):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "weak password"}
		default:
			return "", err
		}
	}
	return enc, nil
}

// VerifyPassword checks a plaintext password against a PHC Argon2id hash.
// A mismatch is a normal (false, nil) outcome, never an error.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	ok, err := cfg.Verify(encodedPHC, plain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, OpError{Op: "identity.VerifyPassword", Kind: ErrInvalidInput, Msg: "invalid argon2id hash"}
		}
		return false, err
	}
	return ok, nil
}
