package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"playtube/cmd/account/ids"
)

// PostgresStore implements Store over PostgreSQL.
//
// Notes:
//   - The pgx pool is owned by the caller; this store must NOT close it.
//   - Schema/table identifiers are quoted to avoid SQL injection via identifiers.
//   - Rotation and revocation are single-statement compare-and-set updates, so
//     concurrent calls against the same account serialize on the row without
//     an explicit transaction.
//   - Unique violations are mapped to ConflictError with a logical field name.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the account store (default "playtube").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("account: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "playtube",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("account: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) accounts() string {
	return pgx.Identifier{s.schema, "accounts"}.Sanitize()
}

const accountColumns = `id, username, email, full_name, avatar_key, cover_image_key,
	password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.FullName, &a.AvatarKey, &a.CoverImageKey,
		&a.PasswordHash, &a.RefreshToken, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create inserts a new account row.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Account, error) {
	const op = "account.Create"

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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.accounts()+` (
		     id, username, username_norm, email, email_norm,
		     full_name, avatar_key, cover_image_key,
		     password_hash, refresh_token, created_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10, $10)`,
		id,
		username,
		NormalizeUsername(username),
		email,
		NormalizeEmail(email),
		strings.TrimSpace(in.FullName),
		strings.TrimSpace(in.AvatarKey),
		strings.TrimSpace(in.CoverImageKey),
		in.PasswordHash,
		now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return Account{}, ConflictError{Op: op, Field: field}
		}
		return Account{}, err
	}

	return Account{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(in.FullName),
		AvatarKey:     strings.TrimSpace(in.AvatarKey),
		CoverImageKey: strings.TrimSpace(in.CoverImageKey),
		PasswordHash:  in.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetByID loads an account by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Account, error) {
	const op = "account.GetByID"

	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+s.accounts()+` WHERE id = $1`, id)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// GetByIdentifier resolves an account by username OR email on the normalized
// columns. ORDER BY id makes the tie-break deterministic: the oldest account
// (lowest ULID) wins when the two fields match different rows.
func (s *PostgresStore) GetByIdentifier(ctx context.Context, username, email string) (Account, error) {
	const op = "account.GetByIdentifier"

	usernameNorm := NormalizeUsername(username)
	emailNorm := NormalizeEmail(email)
	if usernameNorm == "" && emailNorm == "" {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "username or email is required"}
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+s.accounts()+`
		  WHERE ($1 <> '' AND username_norm = $1)
		     OR ($2 <> '' AND email_norm = $2)
		  ORDER BY id
		  LIMIT 1`,
		usernameNorm, emailNorm)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// UpdatePasswordHash replaces the stored password hash wholesale.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string, now time.Time) error {
	const op = "account.UpdatePasswordHash"

	if strings.TrimSpace(passwordHash) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+` SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, orNow(now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id, refreshToken string, now time.Time) error {
	const op = "account.SetRefreshToken"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+` SET refresh_token = $2, updated_at = $3 WHERE id = $1`,
		id, refreshToken, orNow(now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	return nil
}

// RotateRefreshToken is a single-statement compare-and-set: the row updates
// only while the stored token still equals old. Zero rows affected means the
// token was already rotated out (or cleared) by a concurrent call.
func (s *PostgresStore) RotateRefreshToken(ctx context.Context, id, old, next string, now time.Time) error {
	const op = "account.RotateRefreshToken"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+`
		    SET refresh_token = $3, updated_at = $4
		  WHERE id = $1 AND refresh_token = $2`,
		id, old, next, orNow(now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing account from a stale token for the caller.
		var exists bool
		if qErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+s.accounts()+` WHERE id = $1)`, id,
		).Scan(&exists); qErr != nil {
			return qErr
		}
		if !exists {
			return OpError{Op: op, Kind: ErrNotFound}
		}
		return OpError{Op: op, Kind: ErrTokenMismatch}
	}
	return nil
}

// ClearRefreshToken clears the stored refresh token (idempotent).
func (s *PostgresStore) ClearRefreshToken(ctx context.Context, id string, now time.Time) error {
	const op = "account.ClearRefreshToken"

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.accounts()+` SET refresh_token = NULL, updated_at = $2 WHERE id = $1`,
		id, orNow(now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return OpError{Op: op, Kind: ErrNotFound}
	}
	return nil
}

// UpdateProfile applies owner-mutable profile fields and returns the updated row.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, now time.Time) (Account, error) {
	const op = "account.UpdateProfile"

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.accounts()+`
		    SET full_name       = COALESCE($2, full_name),
		        avatar_key      = COALESCE($3, avatar_key),
		        cover_image_key = COALESCE($4, cover_image_key),
		        updated_at      = $5
		  WHERE id = $1
		  RETURNING `+accountColumns,
		id, upd.FullName, upd.AvatarKey, upd.CoverImageKey, orNow(now))

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch c {
	case "uq_accounts_username_norm":
		return "username", true
	case "uq_accounts_email_norm":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "username"):
			return "username", true
		case strings.Contains(c, "email"):
			return "email", true
		default:
			return "unique", true
		}
	}
}
