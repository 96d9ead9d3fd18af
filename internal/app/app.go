// Package app wires configuration, storage, cache and the node service
// together for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ammiranda/td/cache"
	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/repository"
	"github.com/ammiranda/td/service"
)

// App holds the initialized dependencies of a running binary.
type App struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	Repo    repository.Repository
	Cache   cache.Provider
	Service *service.NodeService
}

// New opens the configured repository and cache, builds the service and
// seeds the default structure. Close releases what New acquired.
func New(ctx context.Context, cfg *config.AppConfig, provider config.Provider, logger *slog.Logger) (*App, error) {
	repo, err := repository.New(cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	cp, err := cache.New(ctx, cfg, logger)
	if err != nil {
		repo.Cleanup(ctx)
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithCompletedGrace(cfg.CompletedGrace),
	}
	if cp != nil {
		opts = append(opts, service.WithCache(cp))
	}
	svc := service.NewNodeService(repo, opts...)

	if _, err := svc.Bootstrap(ctx); err != nil {
		repo.Cleanup(ctx)
		return nil, fmt.Errorf("failed to seed default nodes: %w", err)
	}

	logger.Debug("app initialized",
		slog.String("db_driver", cfg.DBDriver),
		slog.String("cache", cfg.CacheBackend))
	return &App{Config: cfg, Logger: logger, Repo: repo, Cache: cp, Service: svc}, nil
}

// Load reads configuration from the environment (or AWS, see
// config.NewProvider) and builds the App. overrides are applied on top of
// the loaded configuration before it is validated again.
func Load(ctx context.Context, overrides ...func(*config.AppConfig)) (*App, error) {
	provider, err := config.NewProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}
	cfg, err := config.Load(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return New(ctx, cfg, provider, config.NewLogger(cfg, os.Stderr))
}

// Close releases the repository and, for backends that hold a
// connection, the cache.
func (a *App) Close(ctx context.Context) error {
	if c, ok := a.Cache.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.Logger.Warn("failed to close cache", slog.String("error", err.Error()))
		}
	}
	return a.Repo.Cleanup(ctx)
}
