package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Cache backends
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheDynamoDB = "dynamodb"
)

// AppConfig is the runtime configuration shared by every binary.
type AppConfig struct {
	DBDriver   string `validate:"oneof=sqlite postgres memory"`
	SQLitePath string `validate:"required_if=DBDriver sqlite"`

	CacheBackend  string        `validate:"oneof=none memory redis dynamodb"`
	CacheTTL      time.Duration `validate:"gte=0"`
	RedisAddr     string        `validate:"required_if=CacheBackend redis"`
	RedisPassword string
	RedisDB       int    `validate:"gte=0"`
	DynamoDBTable string `validate:"required_if=CacheBackend dynamodb"`

	// CompletedGrace is how long a completed node stays visible in the tree.
	CompletedGrace time.Duration `validate:"gte=0"`

	HTTPAddr  string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	Environment Environment
}

// DefaultSQLitePath is ~/.td/default.db, or ./td.db when there is no home directory.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "td.db"
	}
	return filepath.Join(home, ".td", "default.db")
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		DBDriver:       DriverSQLite,
		SQLitePath:     DefaultSQLitePath(),
		CacheBackend:   CacheNone,
		CacheTTL:       time.Minute,
		RedisAddr:      "localhost:6379",
		DynamoDBTable:  "td-cache",
		CompletedGrace: 5 * time.Second,
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		Environment:    Development,
	}
}

var validate = validator.New()

// Validate checks every field against its rules and reports the first failure.
func (c *AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("value %v failed on the %q rule", fe.Value(), fe.Tag()),
		}
	}
	return err
}

// Load reads the application configuration from provider, falling back to
// Defaults for every key that is not set.
func Load(ctx context.Context, provider Provider) (*AppConfig, error) {
	cfg := Defaults()
	cfg.Environment = provider.GetEnvironment()

	stringKeys := []struct {
		key  string
		dest *string
	}{
		{"DB_DRIVER", &cfg.DBDriver},
		{"SQLITE_PATH", &cfg.SQLitePath},
		{"CACHE_BACKEND", &cfg.CacheBackend},
		{"REDIS_ADDR", &cfg.RedisAddr},
		{"DYNAMODB_TABLE", &cfg.DynamoDBTable},
		{"HTTP_ADDR", &cfg.HTTPAddr},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"LOG_FORMAT", &cfg.LogFormat},
	}
	for _, s := range stringKeys {
		if err := lookup(ctx, provider.GetString, s.key, func(v string) error {
			*s.dest = v
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := lookup(ctx, provider.GetSecret, "REDIS_PASSWORD", func(v string) error {
		cfg.RedisPassword = v
		return nil
	}); err != nil {
		return nil, err
	}

	if err := lookup(ctx, provider.GetString, "REDIS_DB", func(v string) error {
		n, err := strconv.Atoi(v)
		cfg.RedisDB = n
		return err
	}); err != nil {
		return nil, err
	}

	durations := []struct {
		key  string
		dest *time.Duration
	}{
		{"CACHE_TTL", &cfg.CacheTTL},
		{"COMPLETED_GRACE", &cfg.CompletedGrace},
	}
	for _, d := range durations {
		if err := lookup(ctx, provider.GetString, d.key, func(v string) error {
			parsed, err := time.ParseDuration(v)
			*d.dest = parsed
			return err
		}); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// lookup reads key and hands it to apply. Unset keys are skipped.
func lookup(ctx context.Context, get func(context.Context, string) (string, error), key string, apply func(string) error) error {
	value, err := get(ctx, key)
	if errors.Is(err, ErrNotSet) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := apply(value); err != nil {
		return &ValidationError{Field: key, Message: err.Error()}
	}
	return nil
}
