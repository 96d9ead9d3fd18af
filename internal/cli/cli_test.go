package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/internal/app"
	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLoader opens a SQLite file under dir so state survives between commands.
func testLoader(dir string) Loader {
	return func(ctx context.Context, overrides ...func(*config.AppConfig)) (*app.App, error) {
		cfg := config.Defaults()
		cfg.SQLitePath = filepath.Join(dir, "td.db")
		for _, o := range overrides {
			o(cfg)
		}
		return app.New(ctx, cfg, &config.MapProvider{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
}

func run(t *testing.T, load Loader, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(load)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, load Loader, args ...string) string {
	t.Helper()
	out, err := run(t, load, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
		assert.NotNil(t, sub.RunE, sub.Name())
	}
	for _, want := range []string{"add", "show", "lineage", "update", "mv", "promote", "done", "crit", "rm", "tree", "wipe", "serve", "mcp"} {
		assert.True(t, names[want], want)
	}
}

func TestAddShowLineage(t *testing.T) {
	load := testLoader(t.TempDir())

	out := mustRun(t, load, "add", "work/q3/report;review")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[ ] work/q3/report (p) "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[ ] work/q3/review (p) "), lines[1])

	out = mustRun(t, load, "--json", "show", "work/q3")
	var shown []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Len(t, shown, 1)
	assert.Equal(t, "area", shown[0]["type"])

	out = mustRun(t, load, "lineage", "work/q3/report")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	_, err := run(t, load, "show", "work/nope")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = run(t, load, "add")
	assert.Error(t, err)
}

func TestUpdateAndMove(t *testing.T) {
	load := testLoader(t.TempDir())
	mustRun(t, load, "add", "work/q3/report")
	mustRun(t, load, "add", "home")

	out := mustRun(t, load, "update", "work/q3", "--title", "q4", "--order", "3", "--status", "archived")
	assert.Contains(t, out, "work/q4 (a)")

	out = mustRun(t, load, "mv", "work/q4", "home")
	assert.Contains(t, out, "home/q4 (a)")
	out = mustRun(t, load, "show", "home/q4/report")
	assert.Contains(t, out, "(p)")

	out = mustRun(t, load, "update", "home/q4", "--path", "")
	assert.Contains(t, out, "q4 (sr)")

	_, err := run(t, load, "mv", "q4", "nowhere")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = run(t, load, "update", "q4", "--meta", "{")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestActionsAndTree(t *testing.T) {
	load := testLoader(t.TempDir())
	mustRun(t, load, "add", "work/q3/report")

	out := mustRun(t, load, "crit", "work/q3")
	assert.Contains(t, out, "work/*q3* (a)")

	out = mustRun(t, load, "tree", "--critical")
	assert.Equal(t, "- [ ] work (sr)\n  - [ ] *q3* (a)\n", out)

	out = mustRun(t, load, "promote", "work/*q3*/report")
	assert.Contains(t, out, "work/report (a)")

	_, err := run(t, load, "promote", "work")
	assert.ErrorIs(t, err, service.ErrStructuralViolation)

	out = mustRun(t, load, "done", "work/report")
	assert.True(t, strings.HasPrefix(out, "[x] work/report"), out)

	out = mustRun(t, load, "--json", "tree")
	var full map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &full))
	assert.Contains(t, full, "work")
	assert.Contains(t, full, "uncategorized")
}

func TestRemove(t *testing.T) {
	load := testLoader(t.TempDir())
	mustRun(t, load, "add", "work/q3/report")

	out := mustRun(t, load, "rm", "work/q3")
	assert.Equal(t, "deleted 2 node(s)\n", out)

	out = mustRun(t, load, "--json", "rm", "work")
	assert.JSONEq(t, `{"deleted":1}`, out)

	_, err := run(t, load, "rm", "work")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDBFlag(t *testing.T) {
	dir := t.TempDir()
	load := testLoader(t.TempDir())
	path := filepath.Join(dir, "other.db")

	mustRun(t, load, "--db", path, "add", "elsewhere")
	_, err := run(t, load, "show", "elsewhere")
	assert.ErrorIs(t, err, service.ErrNotFound)
	out := mustRun(t, load, "--db", path, "show", "elsewhere")
	assert.Contains(t, out, "elsewhere (sr)")
}

func TestWipe(t *testing.T) {
	load := testLoader(t.TempDir())
	mustRun(t, load, "add", "work/q3")

	_, err := run(t, load, "wipe")
	assert.Error(t, err)

	// work, q3 and the seeded uncategorized pair.
	out := mustRun(t, load, "wipe", "--yes")
	assert.Equal(t, "deleted 4 node(s)\n", out)
}
