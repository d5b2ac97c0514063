// Package token implements the credential codec: issuing and verifying
// signed, expiring JWT credentials.
//
// Two credential kinds exist. Access credentials are short-lived and
// stateless; refresh credentials are longer-lived and additionally persisted
// on the user record by the session layer. Each kind is signed with its own
// secret so that compromising one key never validates the other kind.
//
// Verification is purely structural/cryptographic. Business rules (rotation,
// reuse detection, revocation) live in cmd/internal/auth/session.
package token
