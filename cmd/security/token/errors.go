package token

import "errors"

var (
	// ErrTokenExpired is returned when a structurally valid token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for bad signature, bad structure, missing
	// claims, or a kind mismatch.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token config")
)
