package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the two credential kinds the codec can mint.
type Kind string

const (
	// KindAccess is a short-lived credential authorizing a single request.
	KindAccess Kind = "access"
	// KindRefresh is a long-lived credential used to mint new pairs.
	KindRefresh Kind = "refresh"
)

// minKeyBytes is the minimum secret length for HMAC-SHA256 signing.
const minKeyBytes = 32

// Claims is the wire shape of both credential kinds.
// The kind claim prevents a refresh credential from being accepted where an
// access credential is expected (and vice versa) even on key mix-ups.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, expiring credentials (HS256).
type Codec struct {
	issuer string

	accessKey  []byte
	refreshKey []byte

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec constructs a Codec, validating key material up front.
//
// Key separation is enforced: the access and refresh secrets must be
// distinct, so compromising one never validates the other kind.
func NewCodec(issuer string, accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if strings.TrimSpace(issuer) == "" {
		return nil, ErrConfig
	}
	if len(accessKey) < minKeyBytes || len(refreshKey) < minKeyBytes {
		return nil, ErrConfig
	}
	if len(accessKey) == len(refreshKey) && subtle.ConstantTimeCompare(accessKey, refreshKey) == 1 {
		return nil, ErrConfig
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, ErrConfig
	}
	if refreshTTL < accessTTL {
		return nil, ErrConfig
	}

	return &Codec{
		issuer:     issuer,
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL reports the configured access credential lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh credential lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess mints a short-lived access credential for subject.
func (c *Codec) IssueAccess(subject string, now time.Time) (string, time.Time, error) {
	return c.issue(KindAccess, c.accessKey, c.accessTTL, subject, now)
}

// IssueRefresh mints a long-lived refresh credential for subject.
func (c *Codec) IssueRefresh(subject string, now time.Time) (string, time.Time, error) {
	return c.issue(KindRefresh, c.refreshKey, c.refreshTTL, subject, now)
}

func (c *Codec) issue(kind Kind, key []byte, ttl time.Duration, subject string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	exp := now.Add(ttl)

	// A random jti keeps two credentials minted within the same second
	// distinct, which rotation relies on.
	jti, err := newJTI()
	if err != nil {
		return "", time.Time{}, err
	}

	claims := Claims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func newJTI() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Verify checks signature, expiry, issuer, and kind, returning the subject.
//
// Failure modes are structural only:
//   - ErrMalformed        -- the credential cannot be parsed
//   - ErrInvalidSignature -- the MAC does not verify
//   - ErrExpired          -- now is at or past the embedded expiry
//   - ErrInvalidToken     -- wrong kind, foreign issuer, or missing subject
func (c *Codec) Verify(credential string, kind Kind, now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	key := c.accessKey
	if kind == KindRefresh {
		key = c.refreshKey
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(credential, claims,
		func(_ *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		default:
			return "", ErrInvalidToken
		}
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Kind != string(kind) {
		return "", ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}
