package password

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"os"
)

// Params controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxPasswordLen bounds the plaintext fed into the KDF.
	MaxPasswordLen int
}

// DefaultParams returns a baseline tuned for interactive logins.
// Parallelism follows the host CPU count, clamped to [1..4] to keep
// resource usage predictable in containers.
func DefaultParams() Params {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Params{
		MemoryKiB:      64 * 1024, // 64 MiB
		Iterations:     3,
		Parallelism:    uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
		SaltLength:     16,
		KeyLength:      32,
		MaxPasswordLen: 256,
	}
}

// FromEnv loads Params from environment variables, starting from DefaultParams.
//
// Env surface:
//   - PLAYTUBE_ARGON2_MEMORY_KIB
//   - PLAYTUBE_ARGON2_ITERATIONS
//   - PLAYTUBE_ARGON2_PARALLELISM
//   - PLAYTUBE_ARGON2_SALT_LEN
//   - PLAYTUBE_ARGON2_KEY_LEN
//   - PLAYTUBE_PASSWORD_MAX_LEN
func FromEnv() (Params, error) {
	p := DefaultParams()

	if v, ok := os.LookupEnv("PLAYTUBE_ARGON2_MEMORY_KIB"); ok {
		n, err := envUint32(v, 8*1024, 1024*1024)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_ARGON2_MEMORY_KIB: %w", err)
		}
		p.MemoryKiB = n
	}
	if v, ok := os.LookupEnv("PLAYTUBE_ARGON2_ITERATIONS"); ok {
		n, err := envUint32(v, 1, 32)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_ARGON2_ITERATIONS: %w", err)
		}
		p.Iterations = n
	}
	if v, ok := os.LookupEnv("PLAYTUBE_ARGON2_PARALLELISM"); ok {
		n, err := envUint32(v, 1, 8)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_ARGON2_PARALLELISM: %w", err)
		}
		p.Parallelism = uint8(n) // #nosec G115 -- bounded to [1..8] by envUint32.
	}
	if v, ok := os.LookupEnv("PLAYTUBE_ARGON2_SALT_LEN"); ok {
		n, err := envUint32(v, 8, 64)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_ARGON2_SALT_LEN: %w", err)
		}
		p.SaltLength = n
	}
	if v, ok := os.LookupEnv("PLAYTUBE_ARGON2_KEY_LEN"); ok {
		n, err := envUint32(v, 16, 128)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_ARGON2_KEY_LEN: %w", err)
		}
		p.KeyLength = n
	}
	if v, ok := os.LookupEnv("PLAYTUBE_PASSWORD_MAX_LEN"); ok {
		n, err := envUint32(v, 8, 4096)
		if err != nil {
			return Params{}, fmt.Errorf("PLAYTUBE_PASSWORD_MAX_LEN: %w", err)
		}
		p.MaxPasswordLen = int(n)
	}

	return p, nil
}

func envUint32(raw string, min, max uint64) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("out of range [%d..%d]", min, max)
	}
	return uint32(n), nil
}
