package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/rasconsole/internal/session"
)

func newFolderCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Folder commands",
	}
	cmd.AddCommand(newFolderToggleCmd(a))
	cmd.AddCommand(newFolderCreateCmd(a))
	cmd.AddCommand(newFolderRenameCmd(a))
	cmd.AddCommand(newFolderDeleteCmd(a))
	cmd.AddCommand(newFolderMoveCmd(a))
	return cmd
}

func newFolderToggleCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <folder>",
		Short: "Expand or collapse a folder (remembered across runs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				folder, err := resolveFolder(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				if _, err := c.Tree.ToggleFolder(ctx, folder.ID); err != nil {
					return err
				}
				a.printTree(ctx, c)
				return nil
			})
		},
	}
}

func newFolderCreateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				folder, err := c.Folders.Create(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "folder %d created\n", folder.ID)
				return nil
			})
		},
	}
}

func newFolderRenameCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder> <name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				folder, err := resolveFolder(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				return c.Folders.Rename(ctx, folder.ID, args[1])
			})
		},
	}
}

func newFolderDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <folder>",
		Short: "Delete a folder; its connections move to the top level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				folder, err := resolveFolder(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				deleted, err := c.Folders.Delete(ctx, folder.ID, folder.Name)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintln(a.out, "cancelled")
				}
				return nil
			})
		},
	}
}

func newFolderMoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <folder> <target-folder>",
		Short: "Move a folder to the position of another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				snap := c.Tree.Snapshot(ctx)
				source, err := resolveFolder(snap, args[0])
				if err != nil {
					return err
				}
				target, err := resolveFolder(snap, args[1])
				if err != nil {
					return err
				}
				intent, err := c.Reorder.Move(ctx, session.Folder(source.ID), session.Folder(target.ID))
				if err != nil {
					return err
				}
				if intent.NoOp {
					fmt.Fprintln(a.out, "nothing to move")
					return nil
				}
				a.printTree(ctx, c)
				return nil
			})
		},
	}
}
