package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/rasconsole/internal/remote"
)

func (a *App) printTree(ctx context.Context, c *Controller) {
	fmt.Fprintln(a.out, renderTree(c.Tree.Snapshot(ctx)))
}

// ensureOpen makes conn the opened connection unless it already is.
func ensureOpen(ctx context.Context, c *Controller, conn remote.Connection) error {
	if id, ok := c.Tree.ActiveConnection(); ok && id == conn.ID {
		return nil
	}
	return c.Tree.LoadConnectionTree(ctx, conn.ID)
}

func newTreeCmd(a *App) *cobra.Command {
	var reload bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show folders and connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				if reload {
					if err := c.Tree.LoadAll(ctx); err != nil {
						return err
					}
				}
				a.printTree(ctx, c)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reload, "reload", false, "Reload folders and connections first")
	return cmd
}

func newOpenCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open <connection>",
		Short: "Open a connection and list its clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, err := resolveConnection(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				if err := c.Tree.LoadConnectionTree(ctx, conn.ID); err != nil {
					return err
				}
				a.printTree(ctx, c)
				return nil
			})
		},
	}
}

func newExpandCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <connection> (<cluster> <section> | agents)",
		Short: "Load a section of a cluster, or the agents of a connection",
		Long:  "Sections: " + sectionNames() + ". Expanding an expanded section loads it again.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, err := resolveConnection(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				if err := ensureOpen(ctx, c, conn); err != nil {
					return err
				}
				ref, err := sectionRef(c.Tree.Snapshot(ctx).Active, conn.ID, args[1:])
				if err != nil {
					return err
				}
				if err := c.Tree.ExpandSection(ctx, ref); err != nil {
					return err
				}
				a.printTree(ctx, c)
				return nil
			})
		},
	}
}

func newCollapseCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <connection> (<cluster> <section> | agents)",
		Short: "Collapse a section and drop its loaded items",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				snap := c.Tree.Snapshot(ctx)
				conn, err := resolveConnection(snap, args[0])
				if err != nil {
					return err
				}
				ref, err := sectionRef(snap.Active, conn.ID, args[1:])
				if err != nil {
					return err
				}
				c.Tree.CollapseSection(ref)
				a.printTree(ctx, c)
				return nil
			})
		},
	}
}

func sectionNames() string {
	names := make([]string, len(remote.Sections))
	for i, section := range remote.Sections {
		names[i] = string(section)
	}
	return strings.Join(names, ", ")
}

