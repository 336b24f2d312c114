package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <connection>...",
		Short: "Delete several connections at once",
		Long: `Deletes the selected connections after one confirmation.

Connections shared through a group are only deleted when the selection covers every
connection of the group and no other member remains. Otherwise you leave the group and
the connections stay with the remaining members.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				snap := c.Tree.Snapshot(ctx)
				ids := make([]int64, 0, len(args))
				for _, arg := range args {
					conn, err := resolveConnection(snap, arg)
					if err != nil {
						return err
					}
					ids = append(ids, conn.ID)
				}
				return a.bulkDelete(ctx, c, ids)
			})
		},
	}
}

// bulkDelete runs a selection through the bulk deletion coordinator.
func (a *App) bulkDelete(ctx context.Context, c *Controller, ids []int64) error {
	selection := c.Session.BeginBulkDelete()
	defer c.Session.EndBulkDelete()
	for _, id := range ids {
		selection.Add(id)
	}

	result, err := c.BulkDelete.Execute(ctx, selection)
	if err != nil {
		return err
	}
	if result.Declined {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	fmt.Fprintf(a.out, "deleted %d, failed %d\n", result.Deleted, result.Failed)
	for _, outcome := range result.Protected {
		if outcome.Err == nil {
			fmt.Fprintf(a.out, "left group %d %s\n", outcome.Group.ID, outcome.Group.Name)
		}
	}
	if result.Err != nil {
		return errShown{err: result.Err}
	}
	return nil
}

func newGroupCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Shared connection group membership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "join <group-id>",
		Short: "Join a group and see its connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				id, err := parseID("group", args[0])
				if err != nil {
					return err
				}
				return c.Groups.Join(ctx, id)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "leave <group-id>",
		Short: "Leave a group; its connections stay with the other members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				id, err := parseID("group", args[0])
				if err != nil {
					return err
				}
				return c.Groups.Leave(ctx, id)
			})
		},
	})
	return cmd
}
