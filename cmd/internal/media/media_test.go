package media

import (
	"strings"
	"testing"
	"time"
)

func TestStorageKey(t *testing.T) {
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	t.Run("avatar prefix and date path", func(t *testing.T) {
		key := storageKey(KindAvatar, now)
		if !strings.HasPrefix(key, "avatars/2026/03/07/") {
			t.Fatalf("unexpected key: %q", key)
		}
	})

	t.Run("cover prefix", func(t *testing.T) {
		key := storageKey(KindCover, now)
		if !strings.HasPrefix(key, "covers/2026/03/07/") {
			t.Fatalf("unexpected key: %q", key)
		}
	})

	t.Run("unknown kind falls back", func(t *testing.T) {
		key := storageKey(ImageKind("weird"), now)
		if !strings.HasPrefix(key, "misc/") {
			t.Fatalf("unexpected key: %q", key)
		}
	})

	t.Run("keys never collide", func(t *testing.T) {
		a := storageKey(KindAvatar, now)
		b := storageKey(KindAvatar, now)
		if a == b {
			t.Fatalf("two keys minted at the same instant must differ: %q", a)
		}
	})
}

func TestConfigEnabled(t *testing.T) {
	cfg := Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}
	if !cfg.Enabled() {
		t.Fatalf("full config must be enabled")
	}
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Bucket = "" },
		func(c *Config) { c.AccessKeyID = "" },
		func(c *Config) { c.SecretAccessKey = "" },
	} {
		c := cfg
		mutate(&c)
		if c.Enabled() {
			t.Fatalf("partial config must be disabled: %+v", c)
		}
	}
}

func TestNewServiceRequiresConfig(t *testing.T) {
	if _, err := NewService(Config{}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PLAYTUBE_S3_BUCKET", "playtube-media")
	t.Setenv("PLAYTUBE_S3_ACCESS_KEY_ID", "ak")
	t.Setenv("PLAYTUBE_S3_SECRET_ACCESS_KEY", "sk")
	t.Setenv("PLAYTUBE_S3_PRESIGN_TTL", "5m")

	cfg := LoadConfigFromEnv()
	if !cfg.Enabled() {
		t.Fatalf("config should be enabled: %+v", cfg)
	}
	if cfg.PresignTTL != 5*time.Minute {
		t.Fatalf("PresignTTL = %v, want 5m", cfg.PresignTTL)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("Region default = %q", cfg.Region)
	}
}
