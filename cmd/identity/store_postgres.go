package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
//   - The pgx pool is owned by the caller; this store must NOT close it.
//   - Schema/table identifiers are safely quoted to avoid SQL injection via
//     identifiers.
//   - ReplaceRefreshToken is a conditional single-statement UPDATE, so the
//     rotation compare-and-swap is atomic without explicit transactions.
//   - Errors are mapped to identity sentinel kinds where appropriate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "vidtube").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "vidtube",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id, username, username_norm, email, email_norm, full_name,
	avatar_url, cover_image_url, created_at, updated_at`

// CreateUser inserts a new user document.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" {
		return User{}, pgInvalid(op, "username and email are required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, pgInvalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, username, username_norm, email, email_norm, full_name,
		     avatar_url, cover_image_url, password_hash, refresh_token,
		     created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $10)`,
		userID,
		username,
		usernameNorm,
		email,
		emailNorm,
		fullName,
		pgTrimPtr(in.AvatarURL),
		pgTrimPtr(in.CoverImageURL),
		pwHash,
		now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:            userID,
		Username:      username,
		UsernameNorm:  usernameNorm,
		Email:         email,
		EmailNorm:     emailNorm,
		FullName:      fullName,
		AvatarURL:     pgTrimPtr(in.AvatarURL),
		CoverImageURL: pgTrimPtr(in.CoverImageURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetUserByID loads a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if strings.TrimSpace(id) == "" {
		return User{}, pgInvalid(op, "missing id")
	}

	users := pgIdent(s.schema, "users")

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByID loads a user plus credential fields by id.
func (s *PostgresStore) GetUserAuthByID(ctx context.Context, id string) (UserAuth, error) {
	const op = "identity.GetUserAuthByID"

	if strings.TrimSpace(id) == "" {
		return UserAuth{}, pgInvalid(op, "missing id")
	}

	users := pgIdent(s.schema, "users")

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash, refresh_token
		   FROM `+users+` WHERE id = $1`, id)

	ua, err := scanUserAuth(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return UserAuth{}, err
	}
	return ua, nil
}

// GetUserAuthByIdentity resolves a username-or-email login identifier.
func (s *PostgresStore) GetUserAuthByIdentity(ctx context.Context, identifier string) (UserAuth, error) {
	const op = "identity.GetUserAuthByIdentity"

	norm := NormalizeUsername(identifier)
	if norm == "" {
		return UserAuth{}, pgInvalid(op, "missing identifier")
	}

	users := pgIdent(s.schema, "users")

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash, refresh_token
		   FROM `+users+`
		  WHERE username_norm = $1 OR email_norm = $1`, norm)

	ua, err := scanUserAuth(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return UserAuth{}, err
	}
	return ua, nil
}

// SetRefreshToken overwrites the stored refresh credential (nil clears it).
func (s *PostgresStore) SetRefreshToken(ctx context.Context, userID string, refreshToken *string, now time.Time) error {
	const op = "identity.SetRefreshToken"

	if strings.TrimSpace(userID) == "" {
		return pgInvalid(op, "missing user_id")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET refresh_token = $2, updated_at = $3
		  WHERE id = $1`,
		userID, refreshToken, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ReplaceRefreshToken performs the rotation compare-and-swap.
//
// The WHERE clause pins the stored credential to the presented one, so of two
// concurrent refreshers only one can win; the loser observes zero affected
// rows and gets ErrTokenReused. A missing user is reported identically to a
// mismatch to keep the failure indistinguishable from probing.
func (s *PostgresStore) ReplaceRefreshToken(ctx context.Context, userID, oldToken, newToken string, now time.Time) error {
	const op = "identity.ReplaceRefreshToken"

	if strings.TrimSpace(userID) == "" {
		return pgInvalid(op, "missing user_id")
	}
	if oldToken == "" || newToken == "" {
		return pgInvalid(op, "missing token")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET refresh_token = $3, updated_at = $4
		  WHERE id = $1
		    AND refresh_token = $2`,
		userID, oldToken, newToken, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return OpError{Op: op, Kind: ErrTokenReused, Msg: "stored credential mismatch"}
	}
	return nil
}

// SetPasswordHash replaces the stored password hash.
func (s *PostgresStore) SetPasswordHash(ctx context.Context, userID, passwordHash string, now time.Time) error {
	const op = "identity.SetPasswordHash"

	if strings.TrimSpace(userID) == "" {
		return pgInvalid(op, "missing user_id")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return pgInvalid(op, "missing password_hash")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET password_hash = $2, updated_at = $3
		  WHERE id = $1`,
		userID, passwordHash, now)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ---- helpers ----

type pgRow interface {
	Scan(dest ...any) error
}

func scanUser(row pgRow) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.UsernameNorm,
		&u.Email,
		&u.EmailNorm,
		&u.FullName,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func scanUserAuth(row pgRow) (UserAuth, error) {
	var ua UserAuth
	err := row.Scan(
		&ua.User.ID,
		&ua.User.Username,
		&ua.User.UsernameNorm,
		&ua.User.Email,
		&ua.User.EmailNorm,
		&ua.User.FullName,
		&ua.User.AvatarURL,
		&ua.User.CoverImageURL,
		&ua.User.CreatedAt,
		&ua.User.UpdatedAt,
		&ua.PasswordHash,
		&ua.RefreshToken,
	)
	return ua, err
}

// pgTrimPtr trims a string pointer, returning nil if result is empty.
func pgTrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_users_username_norm":
		return "username", true
	case "uq_users_email_norm":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "username"):
			return "username", true
		case strings.Contains(c, "email"):
			return "email", true
		default:
			return "unique", true
		}
	}
}
