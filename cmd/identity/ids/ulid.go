// Package ids mints the identifiers vidtube hands out for users and
// stored media objects.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a 26-character ULID for the given instant. ULIDs sort
// lexicographically by creation time, which keeps index pages warm and
// avoids a coordination point when issuing IDs.
//
// A zero now falls back to the current UTC time.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
