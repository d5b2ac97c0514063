package identity

import (
	"time"

	"vidtube/cmd/identity/ids"
)

// NewULID mints a user ID. Stores call this so ID generation stays
// uniform between the in-memory and Postgres implementations.
func NewULID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
