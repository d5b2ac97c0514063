package app

import (
	"errors"
	"fmt"

	"vidtube/cmd/internal/auth/session"
	"vidtube/cmd/security/password"
)

// ValidateSecurityConfig enforces vidtube's security policy at startup.
//
// Fail-fast is intentional: a server that boots with missing or identical
// signing secrets, or a broken Argon2 policy, would mint credentials it
// cannot stand behind.
func ValidateSecurityConfig() error {
	if _, err := session.LoadConfigFromEnv(); err != nil {
		if errors.Is(err, session.ErrConfig) {
			return errors.New("security policy: VIDTUBE_ACCESS_TOKEN_SECRET and VIDTUBE_REFRESH_TOKEN_SECRET must be set, at least 32 bytes, and distinct")
		}
		return err
	}

	if _, err := password.FromEnv(); err != nil {
		return fmt.Errorf("security policy: invalid argon2 configuration: %w", err)
	}

	return nil
}
