package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.DBDriver = config.DriverMemory
	cfg.CacheBackend = config.CacheMemory

	a, err := New(ctx, cfg, &config.MapProvider{}, testLogger())
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.IsType(t, &repository.MemoryRepository{}, a.Repo)
	assert.NotNil(t, a.Cache)

	n, err := a.Service.Read(ctx, models.ReadAt("uncategorized/uncategorized"))
	require.NoError(t, err)
	assert.Equal(t, models.Area, n.Type)
}

func TestNewSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "td.db")

	a, err := New(ctx, cfg, &config.MapProvider{}, testLogger())
	require.NoError(t, err)
	assert.Nil(t, a.Cache, "caching is off by default")
	_, err = a.Service.Create(ctx, models.NodeCreate{Path: "work/x"})
	require.NoError(t, err)
	require.NoError(t, a.Close(ctx))

	// Reopening keeps the data and does not duplicate the seed.
	a, err = New(ctx, cfg, &config.MapProvider{}, testLogger())
	require.NoError(t, err)
	defer a.Close(ctx)
	nodes, err := a.Repo.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)
}

func TestNewUnsupportedDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.DBDriver = "oracle"
	_, err := New(context.Background(), cfg, &config.MapProvider{}, testLogger())
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TD_DB_DRIVER", "memory")
	t.Setenv("TD_LOG_LEVEL", "error")

	a, err := Load(context.Background(), func(c *config.AppConfig) {
		c.CacheBackend = config.CacheMemory
	})
	require.NoError(t, err)
	defer a.Close(context.Background())
	assert.Equal(t, config.DriverMemory, a.Config.DBDriver)
	assert.Equal(t, config.CacheMemory, a.Config.CacheBackend)

	_, err = Load(context.Background(), func(c *config.AppConfig) { c.DBDriver = "" })
	assert.Error(t, err)
}
