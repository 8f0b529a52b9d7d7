package account

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"playtube/cmd/account/ids"
)

// MemoryStore is an in-memory Store used for tests and DB-less dev mode.
//
// All methods take the same mutex, so SetRefreshToken / RotateRefreshToken /
// ClearRefreshToken are atomic with respect to each other.
type MemoryStore struct {
	mu       sync.Mutex
	byID     map[string]Account
	username map[string]string // username_norm -> id
	email    map[string]string // email_norm -> id
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]Account),
		username: make(map[string]string),
		email:    make(map[string]string),
	}
}

// Create creates a new account, enforcing username/email uniqueness.
func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (Account, error) {
	const op = "account.Create"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username and email are required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Account{}, err
	}

	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.username[usernameNorm]; ok {
		return Account{}, ConflictError{Op: op, Field: "username"}
	}
	if _, ok := s.email[emailNorm]; ok {
		return Account{}, ConflictError{Op: op, Field: "email"}
	}

	acc := Account{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(in.FullName),
		AvatarKey:     strings.TrimSpace(in.AvatarKey),
		CoverImageKey: strings.TrimSpace(in.CoverImageKey),
		PasswordHash:  in.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.byID[id] = acc
	s.username[usernameNorm] = id
	s.email[emailNorm] = id

	return acc, nil
}

// GetByID loads an account by ID.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (Account, error) {
	const op = "account.GetByID"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}
	return acc, nil
}

// GetByIdentifier resolves an account by username OR email.
// When the two fields match different records, the lowest ID wins.
func (s *MemoryStore) GetByIdentifier(ctx context.Context, username, email string) (Account, error) {
	const op = "account.GetByIdentifier"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)
	if usernameNorm == "" && emailNorm == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username or email is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []string
	if usernameNorm != "" {
		if id, ok := s.username[usernameNorm]; ok {
			candidates = append(candidates, id)
		}
	}
	if emailNorm != "" {
		if id, ok := s.email[emailNorm]; ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}

	sort.Strings(candidates)
	return s.byID[candidates[0]], nil
}

// UpdatePasswordHash replaces the stored password hash wholesale.
func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string, now time.Time) error {
	const op = "account.UpdatePasswordHash"

	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	acc.PasswordHash = passwordHash
	acc.UpdatedAt = orNow(now)
	s.byID[id] = acc
	return nil
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
func (s *MemoryStore) SetRefreshToken(ctx context.Context, id, refreshToken string, now time.Time) error {
	const op = "account.SetRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	acc.RefreshToken = refreshToken
	acc.UpdatedAt = orNow(now)
	s.byID[id] = acc
	return nil
}

// RotateRefreshToken replaces the stored token only while it still equals old.
func (s *MemoryStore) RotateRefreshToken(ctx context.Context, id, old, next string, now time.Time) error {
	const op = "account.RotateRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	if acc.RefreshToken == "" || acc.RefreshToken != old {
		return OpError{Op: op, Kind: ErrTokenMismatch}
	}
	acc.RefreshToken = next
	acc.UpdatedAt = orNow(now)
	s.byID[id] = acc
	return nil
}

// ClearRefreshToken clears the stored refresh token. Clearing an already
// cleared token is a no-op.
func (s *MemoryStore) ClearRefreshToken(ctx context.Context, id string, now time.Time) error {
	const op = "account.ClearRefreshToken"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	acc.RefreshToken = ""
	acc.UpdatedAt = orNow(now)
	s.byID[id] = acc
	return nil
}

// UpdateProfile applies owner-mutable profile fields.
func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, now time.Time) (Account, error) {
	const op = "account.UpdateProfile"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if upd.FullName != nil {
		acc.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.AvatarKey != nil {
		acc.AvatarKey = strings.TrimSpace(*upd.AvatarKey)
	}
	if upd.CoverImageKey != nil {
		acc.CoverImageKey = strings.TrimSpace(*upd.CoverImageKey)
	}
	acc.UpdatedAt = orNow(now)
	s.byID[id] = acc
	return acc, nil
}

func orNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now
}
