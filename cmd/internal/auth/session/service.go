package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"vidtube/cmd/identity"
	"vidtube/cmd/security/token"
)

// Service implements the high-level credential operations for vidtube.
//
// It signs in users, rotates refresh credentials with reuse detection,
// invalidates credentials on logout, and handles password changes.
type Service struct {
	cfg   Config
	codec *token.Codec
	store identity.Store

	// dummyHash absorbs the cost of a password verify when the login
	// identifier resolves to no user, so unknown identifiers and wrong
	// passwords take comparable time.
	dummyHash string
}

// Issued is the result of a login or rotation: a fresh credential pair.
type Issued struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store identity.Store) (*Service, error) {
	if store == nil {
		return nil, ErrConfig
	}
	codec, err := cfg.NewCodec()
	if err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg, codec: codec, store: store}

	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}
	return s, nil
}

// Config reports the service configuration.
func (s *Service) Config() Config { return s.cfg }

// Codec exposes the credential codec, e.g. for the auth gate.
func (s *Service) Codec() *token.Codec { return s.codec }

// Login verifies an identifier (username or email) and password, then issues
// a fresh credential pair and stores the refresh credential on the user.
//
// A failed lookup and a failed password check both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, now time.Time, identifier, password string) (Issued, identity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Issued{}, identity.User{}, ErrInvalidCredentials
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	ua, err := s.store.GetUserAuthByIdentity(ctx, identifier)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			// Timing resistance: perform a dummy verify when user is missing.
			if s.dummyHash != "" {
				_, _ = identity.VerifyPassword(password, s.dummyHash)
			}
			return Issued{}, identity.User{}, ErrInvalidCredentials
		}
		return Issued{}, identity.User{}, err
	}

	ok, err := identity.VerifyPassword(password, ua.PasswordHash)
	if err != nil {
		return Issued{}, identity.User{}, err
	}
	if !ok {
		return Issued{}, identity.User{}, ErrInvalidCredentials
	}

	issued, err := s.issuePair(ua.User.ID, now)
	if err != nil {
		return Issued{}, identity.User{}, err
	}

	if err := s.store.SetRefreshToken(ctx, ua.User.ID, &issued.RefreshToken, now); err != nil {
		return Issued{}, identity.User{}, err
	}
	return issued, ua.User, nil
}

// Refresh rotates a refresh credential for a new pair.
//
// The presented credential must verify (signature, expiry, kind, issuer)
// AND match the stored one byte for byte. The store swap is conditional on
// the presented value, so concurrent refreshes with the same credential
// produce exactly one winner. A losing swap is treated as reuse: every
// credential for the user is invalidated and ErrTokenReused is returned.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshCredential string) (Issued, error) {
	refreshCredential = strings.TrimSpace(refreshCredential)
	if refreshCredential == "" || len(refreshCredential) > 4096 {
		return Issued{}, ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := s.codec.Verify(refreshCredential, token.KindRefresh, now)
	if err != nil {
		return Issued{}, mapTokenErr(err)
	}

	issued, err := s.issuePair(userID, now)
	if err != nil {
		return Issued{}, err
	}

	err = s.store.ReplaceRefreshToken(ctx, userID, refreshCredential, issued.RefreshToken, now)
	switch {
	case err == nil:
		return issued, nil
	case identity.IsTokenReused(err):
		// A verified credential that lost the swap was already rotated or
		// revoked. Invalidate everything for the account; the legitimate
		// holder has to sign in again.
		_ = s.store.SetRefreshToken(ctx, userID, nil, now)
		return Issued{}, ErrTokenReused
	default:
		return Issued{}, err
	}
}

// Logout invalidates the stored refresh credential for a user.
//
// It is idempotent: logging out twice, or after the account vanished,
// succeeds either way.
func (s *Service) Logout(ctx context.Context, now time.Time, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	err := s.store.SetRefreshToken(ctx, userID, nil, now)
	if err != nil && !identity.IsNotFound(err) {
		return err
	}
	return nil
}

// ChangePassword verifies the current password and replaces the hash.
// The stored refresh credential is invalidated so existing refresh
// credentials die with the old password.
func (s *Service) ChangePassword(ctx context.Context, now time.Time, userID, oldPassword, newPassword string) error {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	ua, err := s.store.GetUserAuthByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := identity.VerifyPassword(oldPassword, ua.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordHash(ctx, userID, hash, now); err != nil {
		return err
	}
	return s.store.SetRefreshToken(ctx, userID, nil, now)
}

func (s *Service) issuePair(userID string, now time.Time) (Issued, error) {
	access, accessExp, err := s.codec.IssueAccess(userID, now)
	if err != nil {
		return Issued{}, err
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(userID, now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrExpired
	default:
		return ErrInvalidToken
	}
}
