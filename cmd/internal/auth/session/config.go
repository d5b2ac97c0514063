package session

import (
	"crypto/subtle"
	"os"
	"time"

	"vidtube/cmd/security/token"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls the issuer claim, the access/refresh credential lifetimes,
// and the two HMAC signing secrets. The secrets must be distinct so a
// leaked access secret never validates refresh credentials.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued credentials.
	Issuer string

	// AccessTokenTTL defines the lifetime of access credentials.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh credentials.
	RefreshTokenTTL time.Duration

	// AccessTokenSecret signs access credentials (HS256).
	AccessTokenSecret []byte

	// RefreshTokenSecret signs refresh credentials (HS256).
	RefreshTokenSecret []byte
}

// minSecretBytes matches the codec's HMAC-SHA256 key floor.
const minSecretBytes = 32

// DefaultConfig returns a configuration with secure default lifetimes.
// Secrets have no default and must always be supplied.
func DefaultConfig() Config {
	return Config{
		Issuer:          "vidtube",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 10 * 24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - VIDTUBE_ACCESS_TOKEN_SECRET  (at least 32 bytes)
//   - VIDTUBE_REFRESH_TOKEN_SECRET (at least 32 bytes, distinct from access)
//
// Optional (durations must be valid Go duration strings):
//   - VIDTUBE_AUTH_ISSUER
//   - VIDTUBE_AUTH_ACCESS_TTL
//   - VIDTUBE_AUTH_REFRESH_TTL
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VIDTUBE_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("VIDTUBE_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("VIDTUBE_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	cfg.AccessTokenSecret = []byte(os.Getenv("VIDTUBE_ACCESS_TOKEN_SECRET"))
	cfg.RefreshTokenSecret = []byte(os.Getenv("VIDTUBE_REFRESH_TOKEN_SECRET"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the codec will enforce, so misconfiguration
// fails at startup rather than on the first login.
func (c Config) Validate() error {
	if c.Issuer == "" {
		return ErrConfig
	}
	if len(c.AccessTokenSecret) < minSecretBytes || len(c.RefreshTokenSecret) < minSecretBytes {
		return ErrConfig
	}
	if len(c.AccessTokenSecret) == len(c.RefreshTokenSecret) &&
		subtle.ConstantTimeCompare(c.AccessTokenSecret, c.RefreshTokenSecret) == 1 {
		return ErrConfig
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.RefreshTokenTTL < c.AccessTokenTTL {
		return ErrConfig
	}
	return nil
}

// NewCodec builds the signing codec from the configuration.
func (c Config) NewCodec() (*token.Codec, error) {
	codec, err := token.NewCodec(c.Issuer, c.AccessTokenSecret, c.RefreshTokenSecret, c.AccessTokenTTL, c.RefreshTokenTTL)
	if err != nil {
		return nil, ErrConfig
	}
	return codec, nil
}
