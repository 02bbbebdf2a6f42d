package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB    DatabaseConfig
	Redis RedisConfig
	Socx  SocxConfig
	Batch BatchConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SocxConfig contains defaults for the SOCX remote catalog integration.
// The per-user bearer token and base URL override come from settings.
type SocxConfig struct {
	DefaultBaseURL string
	RequestTimeout time.Duration
	ModuleCacheTTL time.Duration
}

// BatchConfig contains tuning for the batch promo-check engine.
type BatchConfig struct {
	Concurrency    int
	ChunkDelay     time.Duration
	StaleThreshold time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// SOCX
	cfg.Socx.DefaultBaseURL = getEnv("SOCX_BASE_URL", "https://indotechapi.socx.app")
	var err error
	if cfg.Socx.RequestTimeout, err = parseDurationEnv("SOCX_REQUEST_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid SOCX_REQUEST_TIMEOUT: %w", err)
	}
	if cfg.Socx.ModuleCacheTTL, err = parseDurationEnv("SOCX_MODULE_CACHE_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid SOCX_MODULE_CACHE_TTL: %w", err)
	}

	// Batch promo-check engine
	cfg.Batch.Concurrency = getEnvInt("PROMO_CHECK_CONCURRENCY", 20)
	if cfg.Batch.Concurrency < 1 {
		cfg.Batch.Concurrency = 1
	}
	if cfg.Batch.ChunkDelay, err = parseDurationEnv("PROMO_CHECK_CHUNK_DELAY", "200ms"); err != nil {
		return nil, fmt.Errorf("invalid PROMO_CHECK_CHUNK_DELAY: %w", err)
	}
	if cfg.Batch.StaleThreshold, err = parseDurationEnv("PROMO_CHECK_STALE_AFTER", "15m"); err != nil {
		return nil, fmt.Errorf("invalid PROMO_CHECK_STALE_AFTER: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
