package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy     bool
	MaxBodyBytes   int64
	MaxUploadBytes int64

	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:     envBool("VIDTUBE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("VIDTUBE_AUTH_MAX_BODY_BYTES", 1<<20),     // 1 MiB
		MaxUploadBytes: envInt64("VIDTUBE_AUTH_MAX_UPLOAD_BYTES", 8<<20),   // 8 MiB
		CookiePath:     envString("VIDTUBE_AUTH_COOKIE_PATH", "/"),
		CookieDomain:   envString("VIDTUBE_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:   envBool("VIDTUBE_AUTH_COOKIE_SECURE", true),
		CookieSameSite: envSameSite("VIDTUBE_AUTH_COOKIE_SAMESITE", http.SameSiteLaxMode),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 8 << 20
	}
	if strings.TrimSpace(cfg.CookiePath) == "" {
		cfg.CookiePath = "/"
	}

	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envSameSite(key string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	case "":
		return def
	default:
		return def
	}
}
