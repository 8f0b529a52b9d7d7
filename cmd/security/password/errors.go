package password

import "errors"

var (
	// ErrInvalidHash is returned for malformed or unsupported encoded hashes.
	ErrInvalidHash = errors.New("invalid password hash")

	// ErrPasswordTooLong is returned when the plaintext exceeds the configured maximum.
	ErrPasswordTooLong = errors.New("password too long")
)
