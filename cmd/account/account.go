package account

import (
	"context"
	"time"
)

// Account is playtube's canonical identity record.
//
// PasswordHash and RefreshToken are server-side only; the API layer strips
// them before anything leaves the process.
type Account struct {
	ID string

	Username string
	Email    string

	FullName      string
	AvatarKey     string
	CoverImageKey string

	// PasswordHash is set at creation and only ever replaced wholesale.
	PasswordHash string

	// RefreshToken is the single active refresh token; empty means no
	// active session.
	RefreshToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes a new account. PasswordHash must already be hashed;
// the store never sees plaintext.
type CreateInput struct {
	Username      string
	Email         string
	FullName      string
	AvatarKey     string
	CoverImageKey string
	PasswordHash  string
	Now           time.Time
}

// ProfileUpdate carries owner-mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName      *string
	AvatarKey     *string
	CoverImageKey *string
}

// Store is the account persistence boundary consumed by the session core.
//
// Refresh-token contract:
//   - SetRefreshToken overwrites unconditionally (login replaces any prior
//     session).
//   - RotateRefreshToken is an atomic compare-and-set: it replaces the stored
//     value only while it still equals old, and returns ErrTokenMismatch
//     otherwise. Two concurrent rotations of the same token must not both
//     succeed.
//   - ClearRefreshToken is idempotent.
type Store interface {
	Create(ctx context.Context, in CreateInput) (Account, error)

	GetByID(ctx context.Context, id string) (Account, error)

	// GetByIdentifier resolves an account matching either the username or the
	// email (logical OR; blank fields are ignored). When both fields match
	// different records the lowest account ID wins, which is the oldest
	// account since IDs are ULIDs.
	GetByIdentifier(ctx context.Context, username, email string) (Account, error)

	UpdatePasswordHash(ctx context.Context, id, passwordHash string, now time.Time) error

	SetRefreshToken(ctx context.Context, id, refreshToken string, now time.Time) error
	RotateRefreshToken(ctx context.Context, id, old, next string, now time.Time) error
	ClearRefreshToken(ctx context.Context, id string, now time.Time) error

	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, now time.Time) (Account, error)
}
