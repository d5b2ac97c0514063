package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and DB-less development.
//
// It mirrors PostgresStore semantics exactly, including the conditional
// compare-and-swap in ReplaceRefreshToken; a single mutex makes every
// operation atomic.
type MemoryStore struct {
	mu sync.Mutex

	users        map[string]*memoryUser // by id
	usernameNorm map[string]string      // username_norm -> id
	emailNorm    map[string]string      // email_norm -> id
}

type memoryUser struct {
	user         User
	passwordHash string
	refreshToken *string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*memoryUser),
		usernameNorm: make(map[string]string),
		emailNorm:    make(map[string]string),
	}
}

// CreateUser inserts a new user document.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username and email are required"}
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:            id,
		Username:      username,
		UsernameNorm:  NormalizeUsername(username),
		Email:         email,
		EmailNorm:     NormalizeEmail(email),
		FullName:      strings.TrimSpace(in.FullName),
		AvatarURL:     copyPtr(in.AvatarURL),
		CoverImageURL: copyPtr(in.CoverImageURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernameNorm[u.UsernameNorm]; taken {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	if _, taken := s.emailNorm[u.EmailNorm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	s.users[id] = &memoryUser{user: u, passwordHash: pwHash}
	s.usernameNorm[u.UsernameNorm] = id
	s.emailNorm[u.EmailNorm] = id

	return u, nil
}

// GetUserByID loads a user by id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return mu.user, nil
}

// GetUserAuthByID loads a user plus credential fields by id.
func (s *MemoryStore) GetUserAuthByID(ctx context.Context, id string) (UserAuth, error) {
	const op = "identity.GetUserAuthByID"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[id]
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	return UserAuth{
		User:         mu.user,
		PasswordHash: mu.passwordHash,
		RefreshToken: copyPtr(mu.refreshToken),
	}, nil
}

// GetUserAuthByIdentity resolves a username-or-email login identifier.
func (s *MemoryStore) GetUserAuthByIdentity(ctx context.Context, identifier string) (UserAuth, error) {
	const op = "identity.GetUserAuthByIdentity"

	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	norm := NormalizeUsername(identifier)
	if norm == "" {
		return UserAuth{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing identifier"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usernameNorm[norm]
	if !ok {
		id, ok = s.emailNorm[norm]
	}
	if !ok {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}

	mu := s.users[id]
	return UserAuth{
		User:         mu.user,
		PasswordHash: mu.passwordHash,
		RefreshToken: copyPtr(mu.refreshToken),
	}, nil
}

// SetRefreshToken overwrites the stored refresh credential (nil clears it).
func (s *MemoryStore) SetRefreshToken(ctx context.Context, userID string, refreshToken *string, now time.Time) error {
	const op = "identity.SetRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}

	mu.refreshToken = copyPtr(refreshToken)
	mu.user.UpdatedAt = now
	return nil
}

// ReplaceRefreshToken performs the rotation compare-and-swap under the lock.
func (s *MemoryStore) ReplaceRefreshToken(ctx context.Context, userID, oldToken, newToken string, now time.Time) error {
	const op = "identity.ReplaceRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}
	if oldToken == "" || newToken == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing token"}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok || mu.refreshToken == nil || *mu.refreshToken != oldToken {
		return OpError{Op: op, Kind: ErrTokenReused, Msg: "stored credential mismatch"}
	}

	tok := newToken
	mu.refreshToken = &tok
	mu.user.UpdatedAt = now
	return nil
}

// SetPasswordHash replaces the stored password hash.
func (s *MemoryStore) SetPasswordHash(ctx context.Context, userID, passwordHash string, now time.Time) error {
	const op = "identity.SetPasswordHash"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing password_hash"}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}

	mu.passwordHash = passwordHash
	mu.user.UpdatedAt = now
	return nil
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
