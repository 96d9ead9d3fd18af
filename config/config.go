package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Environment represents the application environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// EnvPrefix namespaces every environment variable the application reads.
const EnvPrefix = "TD_"

// ErrNotSet is returned by providers when a key has no value.
var ErrNotSet = errors.New("configuration value not set")

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Provider defines the interface for configuration management
type Provider interface {
	// GetString retrieves a string configuration value
	GetString(ctx context.Context, key string) (string, error)
	// GetInt retrieves an integer configuration value
	GetInt(ctx context.Context, key string) (int, error)
	// GetBool retrieves a boolean configuration value
	GetBool(ctx context.Context, key string) (bool, error)
	// GetSecret retrieves a secret value
	GetSecret(ctx context.Context, key string) (string, error)
	// GetEnvironment returns the current environment
	GetEnvironment() Environment
}

// NewProvider returns the provider selected by TD_CONFIG_SOURCE: "aws" reads
// the Secrets Manager secret named by AWS_SECRET_NAME, anything else reads
// TD_-prefixed environment variables.
func NewProvider(ctx context.Context) (Provider, error) {
	if os.Getenv(EnvPrefix+"CONFIG_SOURCE") != "aws" {
		return NewEnvProvider(EnvPrefix), nil
	}

	secretName := os.Getenv("AWS_SECRET_NAME")
	if secretName == "" {
		return nil, fmt.Errorf("AWS_SECRET_NAME environment variable not set")
	}
	provider, err := NewAWSSecretsProvider(ctx, secretName)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS secrets provider: %w", err)
	}
	return provider, nil
}

// EnvProvider implements Provider using environment variables
type EnvProvider struct {
	prefix      string
	environment Environment
}

// NewEnvProvider creates a new environment-based configuration provider
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		prefix:      prefix,
		environment: environmentFromEnv(prefix),
	}
}

func environmentFromEnv(prefix string) Environment {
	env := os.Getenv(prefix + "ENV")
	if env == "" {
		env = string(Development)
	}
	return Environment(env)
}

// GetEnvironment returns the current environment
func (p *EnvProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString retrieves a string configuration value from environment variables
func (p *EnvProvider) GetString(ctx context.Context, key string) (string, error) {
	value := os.Getenv(p.prefix + key)
	if value == "" {
		return "", fmt.Errorf("environment variable %s%s: %w", p.prefix, key, ErrNotSet)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from environment variables
func (p *EnvProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetBool retrieves a boolean configuration value from environment variables
func (p *EnvProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// GetSecret retrieves a secret value from environment variables
func (p *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

// MapProvider serves configuration from a fixed map. It backs tests and
// command-line overrides.
type MapProvider struct {
	Values      map[string]string
	Environment Environment
}

func (p *MapProvider) GetEnvironment() Environment {
	if p.Environment == "" {
		return Development
	}
	return p.Environment
}

func (p *MapProvider) GetString(ctx context.Context, key string) (string, error) {
	value, ok := p.Values[key]
	if !ok || value == "" {
		return "", fmt.Errorf("key %s: %w", key, ErrNotSet)
	}
	return value, nil
}

func (p *MapProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

func (p *MapProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

func (p *MapProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}
