// Package config loads runtime configuration from environment variables.
//
// Every setting has a default so the server and the CLI start with no
// environment at all: a SQLite file under data/, port 8080, tracing off.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Store backends understood by storage.Open.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
	BackendMinIO  = "minio"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	// Service
	Port         int
	ServiceName  string
	LogLevel     string
	ShareBaseURL string

	// Persistence
	StoreBackend string
	StorageKey   string
	DBPath       string
	MySQLDSN     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinIOEndpoint   string
	MinIOAccessKey  string
	MinIOSecretKey  string
	MinIOBucketName string
	MinIOUseSSL     bool

	// OTLP/HTTP collector; empty disables tracing.
	OTelEndpoint string
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment without validating it, for callers that
// override settings before calling Validate.
func FromEnv() *Config {
	return &Config{
		Port:         getEnvAsInt("PORT", 8080),
		ServiceName:  getEnv("SERVICE_NAME", "sourcebin"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ShareBaseURL: getEnv("SHARE_BASE_URL", "http://localhost:8080/"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		StorageKey:   getEnv("STORAGE_KEY", "sourcebin-lite-v2"),
		DBPath:       getEnv("DB_PATH", "data/sourcebin.db"),
		MySQLDSN:     getEnv("MYSQL_DSN", "root:@tcp(localhost:3306)/sourcebin?parseTime=true"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		MinIOEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucketName: getEnv("MINIO_BUCKET_NAME", "sourcebin"),
		MinIOUseSSL:     getEnvAsBool("MINIO_USE_SSL", false),

		OTelEndpoint: getEnv("OTEL_ENDPOINT", ""),
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendMySQL, BackendRedis, BackendMinIO, BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("config: STORAGE_KEY must not be empty")
	}
	return nil
}

// RedisAddr returns the Redis address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the text logger used by both entry points.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.SlogLevel(),
	}))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
