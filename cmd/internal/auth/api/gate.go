package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vidtube/cmd/identity"
	"vidtube/cmd/internal/auth/session"
)

type contextKey struct{ name string }

var userContextKey = contextKey{"auth.user"}

// UserFromContext returns the authenticated user placed by requireAuth.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userContextKey).(identity.User)
	return u, ok
}

// requireAuth wraps a handler with access credential authentication.
//
// The credential is taken from the accessToken cookie or the Authorization
// bearer header; on success the user is attached to the request context.
func (h *Handler) requireAuth(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := accessTokenFromRequest(r)
		if credential == "" {
			writeError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		u, err := h.gate.Authenticate(r.Context(), credential, time.Now().UTC())
		if err != nil {
			switch {
			case errors.Is(err, session.ErrExpired):
				writeError(w, http.StatusUnauthorized, "access token expired")
			case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrUserNotFound):
				writeError(w, http.StatusUnauthorized, "invalid access token")
			default:
				h.log.Error("auth.gate.fail", "err", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	}
}
