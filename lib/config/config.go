// Package config loads the portal core's runtime knobs from the environment,
// with an optional .env file for local runs.
package config

import (
	"os"
	"strconv"
	"time"

	"dispatchportal/lib/constants"

	"github.com/joho/godotenv"
)

// Config holds every tunable the authorization core consumes.
type Config struct {
	LogLevel string
	IsLocal  bool

	// CacheTTL applies to both the in-process decision cache and the
	// Redis-backed session blobs.
	CacheTTL time.Duration

	// StorageBackend selects the session-blob store: memory, redis, or
	// postgres.
	StorageBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresHost     string
	PostgresPort     string
	PostgresName     string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// SnapshotSecret signs the session snapshot tokens.
	SnapshotSecret string
}

// Load reads the environment (after best-effort .env loading) into a Config.
// Missing variables fall back to defaults.
func Load() Config {
	// Ignore the error: a missing .env simply means real env vars are in use.
	_ = godotenv.Load()

	return Config{
		LogLevel: getenv("LOG_LEVEL", "info"),
		IsLocal:  parseBool(getenv("IS_LOCAL", "false")),

		CacheTTL: parseDur(getenv("CACHE_TTL", constants.DefaultCacheTTL.String())),

		StorageBackend: getenv("STORAGE_BACKEND", "memory"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       atoi(getenv("REDIS_DB", "0")),

		PostgresHost:     getenv("DATABASE_HOST", "localhost"),
		PostgresPort:     getenv("DATABASE_PORT", "5432"),
		PostgresName:     getenv("DATABASE_NAME", "dispatchportal"),
		PostgresUser:     getenv("DATABASE_USERNAME", "postgres"),
		PostgresPassword: getenv("DATABASE_PASSWORD", ""),
		PostgresSSLMode:  getenv("SSL_MODE", "disable"),

		SnapshotSecret: getenv("SNAPSHOT_SECRET", ""),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return constants.DefaultCacheTTL
	}
	return d
}
