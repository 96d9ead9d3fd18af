// Package cli implements the td command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/internal/app"
	"github.com/ammiranda/td/models"

	"github.com/spf13/cobra"
)

// Loader builds the App a command runs against.
type Loader func(ctx context.Context, overrides ...func(*config.AppConfig)) (*app.App, error)

type globals struct {
	load     Loader
	dbPath   string
	jsonMode bool
}

// NewRootCmd creates the root td command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(app.Load)
}

func newRootCmd(load Loader) *cobra.Command {
	g := &globals{load: load}
	root := &cobra.Command{
		Use:           "td",
		Short:         "td - a hierarchical task tree",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database file (overrides TD_SQLITE_PATH)")
	root.PersistentFlags().BoolVar(&g.jsonMode, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAddCmd(g),
		newShowCmd(g),
		newLineageCmd(g),
		newUpdateCmd(g),
		newMoveCmd(g),
		newPromoteCmd(g),
		newDoneCmd(g),
		newCritCmd(g),
		newRemoveCmd(g),
		newTreeCmd(g),
		newWipeCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
	)
	return root
}

// withApp loads the App for the duration of fn.
func (g *globals) withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var overrides []func(*config.AppConfig)
	if g.dbPath != "" {
		overrides = append(overrides, func(c *config.AppConfig) {
			c.DBDriver = config.DriverSQLite
			c.SQLitePath = g.dbPath
		})
	}
	a, err := g.load(ctx, overrides...)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}()
	return fn(ctx, a)
}

func (g *globals) printNodes(w io.Writer, nodes ...*models.Node) error {
	if g.jsonMode {
		return writeJSON(w, models.NewOutputs(nodes))
	}
	for _, n := range nodes {
		if _, err := fmt.Fprintln(w, formatNode(n)); err != nil {
			return err
		}
	}
	return nil
}

func formatNode(n *models.Node) string {
	mark := " "
	if n.Status == models.StatusCompleted {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%s) %s", mark, n.Address(), n.Type.Alias(), n.ID)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
