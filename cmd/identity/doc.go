// Package identity holds vidtube's user records and the persistence
// boundary consumed by the session layer.
//
// A user document carries exactly one nullable refresh credential. The store
// contract makes rotation race-safe: replacing the credential is a
// conditional single-field write that only succeeds while the stored value
// still equals the presented one.
package identity
