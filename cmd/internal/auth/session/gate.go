package session

import (
	"context"
	"strings"
	"time"

	"vidtube/cmd/identity"
	"vidtube/cmd/security/token"
)

// Gate authenticates requests by access credential.
//
// Verification is local (signature and expiry), then the subject is resolved
// against the store so credentials for deleted accounts stop working.
type Gate struct {
	codec *token.Codec
	store identity.Store
}

// NewGate constructs a Gate from a codec and a user store.
func NewGate(codec *token.Codec, store identity.Store) (*Gate, error) {
	if codec == nil || store == nil {
		return nil, ErrConfig
	}
	return &Gate{codec: codec, store: store}, nil
}

// Authenticate verifies an access credential and loads its user.
//
// Failure modes: ErrInvalidToken, ErrExpired, ErrUserNotFound.
func (g *Gate) Authenticate(ctx context.Context, credential string, now time.Time) (identity.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || len(credential) > 4096 {
		return identity.User{}, ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := g.codec.Verify(credential, token.KindAccess, now)
	if err != nil {
		return identity.User{}, mapTokenErr(err)
	}

	u, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, ErrUserNotFound
		}
		return identity.User{}, err
	}
	return u, nil
}
