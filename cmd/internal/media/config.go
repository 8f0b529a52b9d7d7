package media

import (
	"os"
	"strings"
	"time"
)

// Config holds the S3-compatible object storage settings. An empty bucket
// or missing credentials leaves the media surface disabled.
type Config struct {
	Region          string
	BaseEndpoint    string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string

	PresignTTL time.Duration
}

// LoadConfigFromEnv loads media config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Region:          envString("PLAYTUBE_S3_REGION", "us-east-1"),
		BaseEndpoint:    envString("PLAYTUBE_S3_ENDPOINT", ""),
		AccessKeyID:     envString("PLAYTUBE_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: envString("PLAYTUBE_S3_SECRET_ACCESS_KEY", ""),
		Bucket:          envString("PLAYTUBE_S3_BUCKET", ""),
		PresignTTL:      envDuration("PLAYTUBE_S3_PRESIGN_TTL", 15*time.Minute),
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return cfg
}

// Enabled reports whether the config carries enough to talk to a bucket.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
