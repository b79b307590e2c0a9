// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends understood by STORE_BACKEND.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// StoreConfig selects and configures the named value store.
type StoreConfig interface {
	DatabaseConfig
	RedisConfig
	GetStoreBackend() string
	GetStoreKeyPrefix() string
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDuplicateScanCron() string
}

// DuplicateConfig provides default duplicate detection thresholds (percent).
type DuplicateConfig interface {
	GetDuplicateOverallThreshold() float64
	GetDuplicateAutoMergeThreshold() float64
}

// ScoringConfig provides settings for the scoring engine.
type ScoringConfig interface {
	GetScoringTablesPath() string
}

// PhoneConfig provides the default region for phone normalization.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	StoreBackend                string
	StoreKeyPrefix              string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	DuplicateScanCron           string
	DuplicateOverallThreshold   float64
	DuplicateAutoMergeThreshold float64
	ScoringTablesPath           string
	PhoneDefaultRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// StoreConfig implementation
func (c *Config) GetStoreBackend() string   { return c.StoreBackend }
func (c *Config) GetStoreKeyPrefix() string { return c.StoreKeyPrefix }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetDuplicateScanCron() string { return c.DuplicateScanCron }

// DuplicateConfig implementation
func (c *Config) GetDuplicateOverallThreshold() float64   { return c.DuplicateOverallThreshold }
func (c *Config) GetDuplicateAutoMergeThreshold() float64 { return c.DuplicateAutoMergeThreshold }

// ScoringConfig implementation
func (c *Config) GetScoringTablesPath() string { return c.ScoringTablesPath }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		StoreBackend:                strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreBackendMemory))),
		StoreKeyPrefix:              getEnv("STORE_KEY_PREFIX", "crm:"),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		DuplicateScanCron:           getEnv("DUPLICATE_SCAN_CRON", "@every 1h"),
		DuplicateOverallThreshold:   mustFloat(getEnv("DUPLICATE_OVERALL_THRESHOLD", "75")),
		DuplicateAutoMergeThreshold: mustFloat(getEnv("DUPLICATE_AUTO_MERGE_THRESHOLD", "95")),
		ScoringTablesPath:           getEnv("SCORING_TABLES_PATH", ""),
		PhoneDefaultRegion:          strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND is redis")
		}
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if !validPercent(c.DuplicateOverallThreshold) {
		return fmt.Errorf("DUPLICATE_OVERALL_THRESHOLD must be in (0, 100]")
	}
	if !validPercent(c.DuplicateAutoMergeThreshold) {
		return fmt.Errorf("DUPLICATE_AUTO_MERGE_THRESHOLD must be in (0, 100]")
	}
	return nil
}

func validPercent(v float64) bool {
	return v > 0 && v <= 100
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
