// Package password hashes and verifies login passwords for vidtube.
//
// Hashes are Argon2id in PHC string form. Cost parameters and the
// length policy come from VIDTUBE_* environment variables with
// conservative defaults. During Verify the stored hash string is
// treated as untrusted input: malformed strings and cost parameters
// above the configured ceiling are rejected rather than executed.
package password
