package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// trivialPasswords is the tiny deny-list applied by RejectVeryWeak.
// This is deliberately not a strength estimator.
var trivialPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"11111111":    {},
}

// Validate checks a plaintext password against the policy.
// Lengths are measured in runes so multibyte input is not penalized.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	if _, bad := trivialPasswords[strings.ToLower(s)]; bad {
		return true
	}

	runes := []rune(s)

	allSame := true
	for _, r := range runes[1:] {
		if r != runes[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}

	// Short all-digit passwords are PIN-like.
	onlyDigits := true
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			onlyDigits = false
			break
		}
	}
	return onlyDigits && len(runes) < 12
}
