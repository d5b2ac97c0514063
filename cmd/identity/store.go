package identity

import (
	"context"
	"time"
)

// User is vidtube's canonical security principal.
//
// PasswordHash and RefreshToken never leave the backend; handlers serialize
// users through sanitized views only.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	Email        string
	EmailNorm    string

	FullName      string
	AvatarURL     *string
	CoverImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth couples a user with its credential fields for the auth paths.
type UserAuth struct {
	User         User
	PasswordHash string

	// RefreshToken is the single currently-valid refresh credential for the
	// user, or nil when logged out. Stored verbatim: the session layer
	// compares presented credentials against it byte-for-byte.
	RefreshToken *string
}

// CreateUserInput describes a registration request.
type CreateUserInput struct {
	Username      string
	Email         string
	Password      string
	FullName      string
	AvatarURL     *string
	CoverImageURL *string
	Now           time.Time
}

// Store is the identity persistence boundary.
//
// Username and email uniqueness is enforced at this layer; violations
// surface as ConflictError. Refresh-token methods are atomic single-field
// updates that never touch the rest of the record.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID loads a user by id. Returns ErrNotFound when absent.
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserAuthByID loads a user plus credential fields by id.
	GetUserAuthByID(ctx context.Context, id string) (UserAuth, error)

	// GetUserAuthByIdentity resolves a login identifier that may be either a
	// username or an email (both matched case-insensitively).
	GetUserAuthByIdentity(ctx context.Context, identifier string) (UserAuth, error)

	// SetRefreshToken overwrites the stored refresh credential (nil clears
	// it). Returns ErrNotFound when the user is absent.
	SetRefreshToken(ctx context.Context, userID string, refreshToken *string, now time.Time) error

	// ReplaceRefreshToken is the rotation write: it stores newToken only if
	// the stored credential still equals oldToken at write time. A caller
	// losing that compare-and-swap receives ErrTokenReused, making reuse of
	// a rotated-away credential detectable even under concurrent refreshes.
	ReplaceRefreshToken(ctx context.Context, userID, oldToken, newToken string, now time.Time) error

	// SetPasswordHash replaces the stored password hash.
	SetPasswordHash(ctx context.Context, userID, passwordHash string, now time.Time) error
}
