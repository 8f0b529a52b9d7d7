package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, embedded migrations run at startup when a database is
	// configured.
	MigrateOnStart bool

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("PLAYTUBE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("PLAYTUBE_LOG_LEVEL", "info"),
		LogFormat: EnvString("PLAYTUBE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("PLAYTUBE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("PLAYTUBE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("PLAYTUBE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("PLAYTUBE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("PLAYTUBE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("PLAYTUBE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("PLAYTUBE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("PLAYTUBE_DB_MIN_CONNS", 0),

		MigrateOnStart: EnvBool("PLAYTUBE_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("PLAYTUBE_READINESS_REQUIRE_DB", false),
	}
}
