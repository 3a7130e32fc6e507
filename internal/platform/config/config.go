package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SourceKind selects where pricing documents are read from.
type SourceKind string

const (
	SourceMongo    SourceKind = "mongo"
	SourceFile     SourceKind = "file"
	SourcePostgres SourceKind = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string
	Source    SourceKind
	Mongo     MongoConfig
	Postgres  PostgresConfig
	File      FileConfig
	Redis     RedisConfig
	// DashboardCacheTTL bounds how long a computed dashboard is served from cache.
	DashboardCacheTTL time.Duration
}

// MongoConfig points at the pricing-workflow collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// PostgresConfig points at a JSONB table of pricing documents.
type PostgresConfig struct {
	URL   string
	Table string
}

// FileConfig points at a JSON or NDJSON export.
type FileConfig struct {
	Path string
}

// RedisConfig configures the optional dashboard cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:      envString("PRICING_ADDR", ":8080"),
		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),
		Source:    SourceKind(strings.ToLower(envString("PRICING_SOURCE", string(SourceMongo)))),
		Mongo: MongoConfig{
			URI:        envString("MONGO_URI", "mongodb://localhost:27017"),
			Database:   envString("MONGO_DATABASE", "master-catalogue"),
			Collection: envString("MONGO_COLLECTION", "test-temp"),
			Timeout:    envDuration("MONGO_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			URL:   os.Getenv("DATABASE_URL"),
			Table: envString("PRICING_TABLE", "pricing_documents"),
		},
		File: FileConfig{
			Path: os.Getenv("PRICING_FILE"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		DashboardCacheTTL: envDuration("DASHBOARD_CACHE_TTL", 2*time.Minute),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
