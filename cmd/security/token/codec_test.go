package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.RefreshSecret = []byte(strings.Repeat("r", 32))
	return cfg
}

func mustCodec(t *testing.T, cfg Config) *Codec {
	t.Helper()
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"short access secret":  func(c *Config) { c.AccessSecret = []byte("short") },
		"short refresh secret": func(c *Config) { c.RefreshSecret = []byte("short") },
		"shared secret":        func(c *Config) { c.RefreshSecret = c.AccessSecret },
		"zero access ttl":      func(c *Config) { c.AccessTTL = 0 },
		"access outlives refresh": func(c *Config) {
			c.AccessTTL = 10 * 24 * time.Hour
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestIssueAndVerifyBothKinds(t *testing.T) {
	c := mustCodec(t, testConfig())
	now := time.Now().UTC()

	access, accessExp, err := c.IssueAccess("01JABCDEFGHJKMNPQRSTVWXYZ9", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, refreshExp, err := c.IssueRefresh("01JABCDEFGHJKMNPQRSTVWXYZ9", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if access == refresh {
		t.Fatalf("access and refresh tokens must differ")
	}
	if !refreshExp.After(accessExp) {
		t.Fatalf("refresh expiry %v should be after access expiry %v", refreshExp, accessExp)
	}

	ac, err := c.Verify(access, KindAccess)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if ac.Subject != "01JABCDEFGHJKMNPQRSTVWXYZ9" || ac.Kind != KindAccess {
		t.Fatalf("unexpected access claims: %+v", ac)
	}

	rc, err := c.Verify(refresh, KindRefresh)
	if err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
	if rc.Kind != KindRefresh {
		t.Fatalf("unexpected refresh claims: %+v", rc)
	}
}

func TestVerifyRejectsCrossKind(t *testing.T) {
	c := mustCodec(t, testConfig())
	now := time.Now().UTC()

	access, _, err := c.IssueAccess("subject", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := c.IssueRefresh("subject", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := c.Verify(access, KindRefresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access-as-refresh: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := c.Verify(refresh, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh-as-access: expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	c := mustCodec(t, testConfig())

	// Issued far enough in the past that the leeway cannot save it.
	past := time.Now().UTC().Add(-c.AccessTTL() - 10*time.Minute)
	tok, _, err := c.IssueAccess("subject", past)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyLeewayToleratesSmallSkew(t *testing.T) {
	c := mustCodec(t, testConfig())

	// Expired 10s ago; within the 30s default clock skew.
	past := time.Now().UTC().Add(-c.AccessTTL() - 10*time.Second)
	tok, _, err := c.IssueAccess("subject", past)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := c.Verify(tok, KindAccess); err != nil {
		t.Fatalf("expected leeway to tolerate 10s skew, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	c := mustCodec(t, testConfig())

	other := testConfig()
	other.AccessSecret = []byte(strings.Repeat("x", 32))
	foreign := mustCodec(t, other)

	tok, _, err := foreign.IssueAccess("subject", time.Now().UTC())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	c := mustCodec(t, testConfig())

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := c.Verify(tok, KindAccess); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q): expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}
