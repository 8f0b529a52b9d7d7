package session

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config defines runtime configuration for the session service.
type Config struct {
	// HashConcurrency bounds the number of Argon2id computations running at
	// once. Hashing is intentionally memory- and CPU-expensive; an unbounded
	// burst of logins must not starve the rest of the server.
	HashConcurrency int

	// MaxTokenLen bounds presented refresh tokens to reject pathological input
	// before signature verification.
	MaxTokenLen int

	// HashTimeout caps how long a request waits for a hashing slot.
	HashTimeout time.Duration
}

// DefaultConfig returns defaults scaled to the host.
func DefaultConfig() Config {
	return Config{
		HashConcurrency: 2 * runtime.GOMAXPROCS(0),
		MaxTokenLen:     4096,
		HashTimeout:     10 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - PLAYTUBE_HASH_CONCURRENCY
//   - PLAYTUBE_HASH_TIMEOUT
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PLAYTUBE_HASH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 256 {
			return Config{}, ErrConfig
		}
		cfg.HashConcurrency = n
	}
	if v := os.Getenv("PLAYTUBE_HASH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.HashTimeout = d
	}

	return cfg, nil
}
