// Package session implements credential issuance, validation, rotation,
// and invalidation for vidtube accounts.
//
// Each user carries at most one active refresh credential, stored verbatim
// on the user record. Rotation replaces it with a compare-and-swap so that
// of two concurrent refreshers exactly one wins; the loser is treated as
// credential reuse and every credential for that user is invalidated.
package session
