package session

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown identifier or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a refresh token's subject no longer
	// resolves to an account, or the account's session state rejects the call.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenReused is returned when a presented refresh token verifies
	// cryptographically but no longer matches the stored value: it was
	// already rotated out, or the session was revoked. The call must not
	// extend the session.
	ErrTokenReused = errors.New("refresh token reused")

	// ErrValidation is returned for missing or malformed input fields.
	ErrValidation = errors.New("invalid input")

	// ErrConfig is returned for invalid service configuration.
	ErrConfig = errors.New("invalid session config")
)
