package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"playtube/cmd/account"
	"playtube/cmd/security/password"
	"playtube/cmd/security/token"
)

// Issued is the result of issuing or rotating a token pair.
type Issued struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginResult bundles the token pair with the sanitized account.
type LoginResult struct {
	Account account.Account
	Issued  Issued
}

// RegisterInput describes a registration request. Plaintext password only
// lives here; it is hashed before it reaches the store.
type RegisterInput struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarKey     string
	CoverImageKey string
}

// Service orchestrates login, refresh, logout, and password change over the
// account store, the password hasher, and the token codec. It holds its
// dependencies explicitly; there is no ambient request state.
type Service struct {
	cfg    Config
	store  account.Store
	hasher password.Hasher
	codec  *token.Codec

	// hashSem bounds concurrent Argon2id work.
	hashSem chan struct{}

	// dummyHash is verified on the missing-account login path so that an
	// unknown identifier costs the same as a wrong password.
	dummyHash string
}

// NewService constructs a Service.
func NewService(cfg Config, store account.Store, hasher password.Hasher, codec *token.Codec) (*Service, error) {
	if store == nil || codec == nil {
		return nil, ErrConfig
	}
	if cfg.HashConcurrency < 1 {
		cfg.HashConcurrency = DefaultConfig().HashConcurrency
	}
	if cfg.MaxTokenLen < 1 {
		cfg.MaxTokenLen = DefaultConfig().MaxTokenLen
	}
	if cfg.HashTimeout <= 0 {
		cfg.HashTimeout = DefaultConfig().HashTimeout
	}

	s := &Service{
		cfg:     cfg,
		store:   store,
		hasher:  hasher,
		codec:   codec,
		hashSem: make(chan struct{}, cfg.HashConcurrency),
	}

	if hash, err := hasher.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}

	return s, nil
}

// Register creates a new account. The returned account is sanitized.
// Username/email conflicts surface as account.ConflictError.
func (s *Service) Register(ctx context.Context, in RegisterInput) (account.Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return account.Account{}, ErrValidation
	}

	hash, err := s.hashPassword(ctx, in.Password)
	if err != nil {
		return account.Account{}, err
	}

	acc, err := s.store.Create(ctx, account.CreateInput{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarKey:     strings.TrimSpace(in.AvatarKey),
		CoverImageKey: strings.TrimSpace(in.CoverImageKey),
		PasswordHash:  hash,
		Now:           time.Now().UTC(),
	})
	if err != nil {
		return account.Account{}, err
	}

	return sanitize(acc), nil
}

// Login verifies credentials and, on success, issues a fresh token pair and
// persists the refresh token, unilaterally replacing any prior session.
//
// An unknown identifier and a wrong password both fail ErrInvalidCredentials.
// If persisting the refresh token fails, no tokens are returned: issuance and
// persistence are a single unit.
func (s *Service) Login(ctx context.Context, username, email, plaintext string) (LoginResult, error) {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return LoginResult{}, ErrValidation
	}
	if plaintext == "" {
		return LoginResult{}, ErrValidation
	}

	acc, err := s.store.GetByIdentifier(ctx, username, email)
	if err != nil {
		if account.IsNotFound(err) {
			// Burn a verify so the miss costs the same as a mismatch.
			if s.dummyHash != "" {
				_, _ = s.verifyPassword(ctx, plaintext, s.dummyHash)
			}
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("session: lookup account: %w", err)
	}

	ok, err := s.verifyPassword(ctx, plaintext, acc.PasswordHash)
	if err != nil || !ok {
		// Malformed stored hash collapses into a credential failure too.
		return LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	issued, err := s.issuePair(acc.ID, now)
	if err != nil {
		return LoginResult{}, fmt.Errorf("session: issue tokens: %w", err)
	}

	if err := s.store.SetRefreshToken(ctx, acc.ID, issued.RefreshToken, now); err != nil {
		return LoginResult{}, fmt.Errorf("session: persist refresh token: %w", err)
	}

	return LoginResult{Account: sanitize(acc), Issued: issued}, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the stored
// value. A token that verifies but no longer matches the stored value fails
// ErrTokenReused and does not extend the session.
//
// Ordering: the new pair is signed first and persisted second; when the
// compare-and-set loses, the signed pair is discarded.
func (s *Service) Refresh(ctx context.Context, presented string) (Issued, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" || len(presented) > s.cfg.MaxTokenLen {
		return Issued{}, token.ErrTokenInvalid
	}

	claims, err := s.codec.Verify(presented, token.KindRefresh)
	if err != nil {
		// token.ErrTokenExpired / token.ErrTokenInvalid flow to the boundary.
		return Issued{}, err
	}

	if _, err := s.store.GetByID(ctx, claims.Subject); err != nil {
		if account.IsNotFound(err) {
			return Issued{}, ErrUnauthorized
		}
		return Issued{}, fmt.Errorf("session: load account: %w", err)
	}

	now := time.Now().UTC()
	issued, err := s.issuePair(claims.Subject, now)
	if err != nil {
		return Issued{}, fmt.Errorf("session: issue tokens: %w", err)
	}

	err = s.store.RotateRefreshToken(ctx, claims.Subject, presented, issued.RefreshToken, now)
	switch {
	case err == nil:
		return issued, nil
	case account.IsTokenMismatch(err):
		return Issued{}, ErrTokenReused
	case account.IsNotFound(err):
		return Issued{}, ErrUnauthorized
	default:
		return Issued{}, fmt.Errorf("session: rotate refresh token: %w", err)
	}
}

// ValidateAccess checks an access token and returns the account ID it was
// issued for. It never touches the store: access tokens stay valid until
// they expire, even after logout.
func (s *Service) ValidateAccess(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" || len(tokenString) > s.cfg.MaxTokenLen {
		return "", token.ErrTokenInvalid
	}
	claims, err := s.codec.Verify(tokenString, token.KindAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Logout clears the stored refresh token. Logging out an already-anonymous
// or deleted account is a no-op.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	err := s.store.ClearRefreshToken(ctx, accountID, time.Now().UTC())
	if err != nil && !account.IsNotFound(err) {
		return fmt.Errorf("session: clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password and replaces the hash wholesale.
//
// It intentionally does not revoke the stored refresh token: the observed
// behavior keeps the current session alive across a password change.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPlaintext, newPlaintext string) error {
	if oldPlaintext == "" || newPlaintext == "" {
		return ErrValidation
	}

	acc, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if account.IsNotFound(err) {
			return ErrUnauthorized
		}
		return fmt.Errorf("session: load account: %w", err)
	}

	ok, err := s.verifyPassword(ctx, oldPlaintext, acc.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hashPassword(ctx, newPlaintext)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePasswordHash(ctx, accountID, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("session: update password hash: %w", err)
	}
	return nil
}

// Account loads the sanitized account for an authenticated principal.
func (s *Service) Account(ctx context.Context, accountID string) (account.Account, error) {
	acc, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if account.IsNotFound(err) {
			return account.Account{}, ErrUnauthorized
		}
		return account.Account{}, fmt.Errorf("session: load account: %w", err)
	}
	return sanitize(acc), nil
}

// UpdateProfile applies owner-mutable profile fields and returns the
// sanitized result.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd account.ProfileUpdate) (account.Account, error) {
	acc, err := s.store.UpdateProfile(ctx, accountID, upd, time.Now().UTC())
	if err != nil {
		if account.IsNotFound(err) {
			return account.Account{}, ErrUnauthorized
		}
		return account.Account{}, fmt.Errorf("session: update profile: %w", err)
	}
	return sanitize(acc), nil
}

func (s *Service) issuePair(subject string, now time.Time) (Issued, error) {
	access, accessExp, err := s.codec.IssueAccess(subject, now)
	if err != nil {
		return Issued{}, err
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(subject, now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// hashPassword runs the KDF under the concurrency bound.
func (s *Service) hashPassword(ctx context.Context, plaintext string) (string, error) {
	release, err := s.acquireHashSlot(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return s.hasher.Hash(plaintext)
}

func (s *Service) verifyPassword(ctx context.Context, plaintext, encoded string) (bool, error) {
	release, err := s.acquireHashSlot(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	return s.hasher.Verify(plaintext, encoded)
}

func (s *Service) acquireHashSlot(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.cfg.HashTimeout)
	defer timer.Stop()

	select {
	case s.hashSem <- struct{}{}:
		return func() { <-s.hashSem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("session: hashing capacity saturated")
	}
}

// sanitize strips server-side secrets before the account leaves the core.
func sanitize(acc account.Account) account.Account {
	acc.PasswordHash = ""
	acc.RefreshToken = ""
	return acc
}
