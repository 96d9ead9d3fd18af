package cli

import (
	"context"
	"fmt"

	"github.com/ammiranda/td/internal/app"
	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/tree"

	"github.com/spf13/cobra"
)

func newAddCmd(g *globals) *cobra.Command {
	var meta string
	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Create a node and any missing ancestors",
		Long: "Create a node and any missing ancestors. The last segment may hold several\n" +
			"titles separated by ';', e.g. \"work/q3/report;review\".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				nodes, err := a.Service.Create(ctx, models.NodeCreate{Path: args[0], Meta: meta})
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), nodes...)
			})
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "", "JSON metadata for new nodes")
	return cmd
}

func newShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Print a single node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Service.Read(ctx, models.ReadAt(args[0]))
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), n)
			})
		},
	}
}

func newLineageCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "lineage <address>",
		Short: "Print a node and its ancestors up to the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				chain, err := a.Service.Lineage(ctx, models.ReadAt(args[0]))
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), chain...)
			})
		},
	}
}

func newUpdateCmd(g *globals) *cobra.Command {
	var (
		title  string
		path   string
		status string
		order  float64
		meta   string
	)
	cmd := &cobra.Command{
		Use:   "update <address>",
		Short: "Rename, move or edit a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.NodeUpdate{Path: args[0]}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.NewTitle = &title
			}
			if flags.Changed("path") {
				req.NewPath = &path
			}
			if flags.Changed("status") {
				s := models.NodeStatus(status)
				req.NewStatus = &s
			}
			if flags.Changed("order") {
				req.NewOrder = &order
			}
			if flags.Changed("meta") {
				req.NewMeta = &meta
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Service.Update(ctx, req)
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), n)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&path, "path", "", "new parent path; empty moves the node to the root")
	cmd.Flags().StringVar(&status, "status", "", "new status: active, completed or archived")
	cmd.Flags().Float64Var(&order, "order", 0, "new sibling sort order")
	cmd.Flags().StringVar(&meta, "meta", "", "new JSON metadata")
	return cmd
}

func newMoveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <address> <new-parent>",
		Short: "Move a node and its subtree under another parent",
		Long:  "Move a node and its subtree under another parent. Pass \"\" as the parent to move to the root.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Service.Move(ctx, models.ReadAt(args[0]), args[1])
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), n)
			})
		},
	}
}

type nodeOp func(context.Context, models.NodeRead) (*models.Node, error)

// newActionCmd builds a single-address command around one service operation.
func newActionCmd(g *globals, use, short string, op func(*app.App) nodeOp) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := op(a)(ctx, models.ReadAt(args[0]))
				if err != nil {
					return err
				}
				return g.printNodes(cmd.OutOrStdout(), n)
			})
		},
	}
}

func newPromoteCmd(g *globals) *cobra.Command {
	return newActionCmd(g, "promote", "Move a node up one level, next to its parent",
		func(a *app.App) nodeOp { return a.Service.Promote })
}

func newDoneCmd(g *globals) *cobra.Command {
	return newActionCmd(g, "done", "Toggle a node between completed and active",
		func(a *app.App) nodeOp { return a.Service.ToggleComplete })
}

func newCritCmd(g *globals) *cobra.Command {
	return newActionCmd(g, "crit", "Mark or unmark a node as critical",
		func(a *app.App) nodeOp { return a.Service.ToggleCritical })
}

func newRemoveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <address>",
		Short: "Delete a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				count, err := a.Service.Delete(ctx, models.NodeDelete{Path: args[0]})
				if err != nil {
					return err
				}
				if g.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": count})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d node(s)\n", count)
				return err
			})
		},
	}
}

func newTreeCmd(g *globals) *cobra.Command {
	var critical bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the live tree as an outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var (
					t   tree.Tree
					err error
				)
				if critical {
					t, err = a.Service.CriticalNodes(ctx)
				} else {
					t, err = a.Service.Tree(ctx)
				}
				if err != nil {
					return err
				}
				if g.jsonMode {
					return writeJSON(cmd.OutOrStdout(), t)
				}
				return t.WriteOutline(cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().BoolVar(&critical, "critical", false, "only critical nodes and their ancestors")
	return cmd
}

func newWipeCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			return g.withApp(cmd, func(ctx context.Context, a *app.App) error {
				count, err := a.Service.Wipe(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d node(s)\n", count)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting the whole tree")
	return cmd
}
