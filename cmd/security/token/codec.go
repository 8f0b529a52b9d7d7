package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two token families the codec signs.
type Kind string

const (
	// KindAccess is a short-lived, stateless credential. Never persisted.
	KindAccess Kind = "access"
	// KindRefresh is a long-lived credential exchanged for a new pair.
	KindRefresh Kind = "refresh"
)

// Claims is the verified content of a playtube token.
type Claims struct {
	Subject   string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	Kind Kind `json:"knd"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access and refresh tokens.
type Codec struct {
	cfg Config
}

// NewCodec constructs a Codec, validating secrets and TTLs.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

// IssueAccess signs a new access token for subject.
func (c *Codec) IssueAccess(subject string, now time.Time) (string, time.Time, error) {
	return c.issue(subject, KindAccess, c.cfg.AccessTTL, c.cfg.AccessSecret, now)
}

// IssueRefresh signs a new refresh token for subject.
func (c *Codec) IssueRefresh(subject string, now time.Time) (string, time.Time, error) {
	return c.issue(subject, KindRefresh, c.cfg.RefreshTTL, c.cfg.RefreshSecret, now)
}

func (c *Codec) issue(subject string, kind Kind, ttl time.Duration, secret []byte, now time.Time) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(ttl)

	// A unique jti keeps two tokens minted in the same second distinct, so
	// rotation always replaces the stored value with a different string.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, wireClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and verifies a token of the expected kind.
//
// Failure modes:
//   - ErrTokenExpired: signature valid, past expiry (beyond clock skew).
//   - ErrTokenInvalid: bad signature/structure, wrong issuer, missing subject,
//     or kind mismatch (including a token signed with the other kind's secret).
func (c *Codec) Verify(tokenString string, expected Kind) (Claims, error) {
	var secret []byte
	switch expected {
	case KindAccess:
		secret = c.cfg.AccessSecret
	case KindRefresh:
		secret = c.cfg.RefreshSecret
	default:
		return Claims{}, ErrTokenInvalid
	}

	wire := &wireClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, wire,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithLeeway(c.cfg.ClockSkew),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}

	if wire.Kind != expected {
		return Claims{}, ErrTokenInvalid
	}
	if wire.Subject == "" || wire.ExpiresAt == nil {
		return Claims{}, ErrTokenInvalid
	}

	claims := Claims{
		Subject:   wire.Subject,
		Kind:      wire.Kind,
		ExpiresAt: wire.ExpiresAt.Time,
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time
	}
	return claims, nil
}
