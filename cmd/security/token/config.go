package token

import (
	"os"
	"strings"
	"time"
)

// Config defines runtime configuration for the token codec.
//
// Access and refresh secrets must differ; key separation is what prevents a
// token of one kind from verifying as the other.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// AccessTTL is the lifetime of access tokens (minutes-scale).
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh tokens (days-scale).
	RefreshTTL time.Duration

	// ClockSkew is the leeway applied to time-based claims during verification.
	ClockSkew time.Duration

	// AccessSecret signs access tokens.
	AccessSecret []byte

	// RefreshSecret signs refresh tokens.
	RefreshSecret []byte
}

// DefaultConfig returns defaults suitable for development; secrets must still
// be provided by the caller or the environment.
func DefaultConfig() Config {
	return Config{
		Issuer:     "playtube",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		ClockSkew:  30 * time.Second,
	}
}

// LoadConfigFromEnv loads codec configuration from environment variables.
//
// Required:
//   - PLAYTUBE_ACCESS_TOKEN_SECRET
//   - PLAYTUBE_REFRESH_TOKEN_SECRET
//
// Optional (durations must be valid Go duration strings):
//   - PLAYTUBE_TOKEN_ISSUER
//   - PLAYTUBE_ACCESS_TOKEN_TTL
//   - PLAYTUBE_REFRESH_TOKEN_TTL
//   - PLAYTUBE_TOKEN_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PLAYTUBE_TOKEN_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v := os.Getenv("PLAYTUBE_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}
	if v := os.Getenv("PLAYTUBE_REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = d
	}
	if v := os.Getenv("PLAYTUBE_TOKEN_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.AccessSecret = []byte(strings.TrimSpace(os.Getenv("PLAYTUBE_ACCESS_TOKEN_SECRET")))
	cfg.RefreshSecret = []byte(strings.TrimSpace(os.Getenv("PLAYTUBE_REFRESH_TOKEN_SECRET")))

	return cfg, nil
}

func (c Config) validate() error {
	if len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32 {
		return ErrConfig
	}
	if string(c.AccessSecret) == string(c.RefreshSecret) {
		return ErrConfig
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.ClockSkew < 0 {
		return ErrConfig
	}
	// Access tokens are the short-lived kind.
	if c.AccessTTL >= c.RefreshTTL {
		return ErrConfig
	}
	return nil
}
