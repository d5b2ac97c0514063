package identity

import "strings"

// NormalizeUsername canonicalizes a username for uniqueness checks and
// lookups. Trim plus lower-case only; anything stricter (unicode
// confusables) would need a versioned policy so stored norms stay stable.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail canonicalizes an email address the same way. The
// display form is stored alongside the norm, so normalization is lossless.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
