package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls HTTP API behavior and cookie transport defaults.
type Config struct {
	MaxBodyBytes int64

	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
}

// DefaultConfig returns the API defaults used when no environment is set.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:      1 << 20, // 1 MiB
		AccessCookieName:  "accessToken",
		RefreshCookieName: "refreshToken",
		CookiePath:        "/",
		CookieSecure:      true,
		CookieSameSite:    http.SameSiteStrictMode,
	}
}

// LoadConfigFromEnv loads API config from environment variables with safe
// defaults.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = envInt64("PLAYTUBE_API_MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.CookieDomain = envString("PLAYTUBE_API_COOKIE_DOMAIN", "")
	cfg.CookieSecure = envBool("PLAYTUBE_API_COOKIE_SECURE", true)

	switch strings.ToLower(envString("PLAYTUBE_API_COOKIE_SAMESITE", "strict")) {
	case "lax":
		cfg.CookieSameSite = http.SameSiteLaxMode
	case "none":
		cfg.CookieSameSite = http.SameSiteNoneMode
	default:
		cfg.CookieSameSite = http.SameSiteStrictMode
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
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
