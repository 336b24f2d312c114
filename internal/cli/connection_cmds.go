package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/rasconsole/internal/dialog"
	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/session"
	"github.com/charlesng35/rasconsole/internal/tree"
	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
)

const defaultRASPort = 1545

func newConnectionCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn"},
		Short:   "Connection commands",
	}
	cmd.AddCommand(newConnectionCreateCmd(a))
	cmd.AddCommand(newConnectionUpdateCmd(a))
	cmd.AddCommand(newConnectionDeleteCmd(a))
	cmd.AddCommand(newConnectionMoveCmd(a))
	return cmd
}

type connectionFlags struct {
	name        string
	host        string
	port        int
	description string
	folder      string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Display name")
	cmd.Flags().StringVar(&f.host, "host", "", "RAS server host")
	cmd.Flags().IntVar(&f.port, "port", defaultRASPort, "RAS port")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.folder, "folder", "", "Folder name or id (empty for the top level)")
}

// folderID resolves the --folder flag; nil means the top level.
func (f *connectionFlags) folderID(snap tree.Snapshot) (*int64, error) {
	if f.folder == "" {
		return nil, nil
	}
	folder, err := resolveFolder(snap, f.folder)
	if err != nil {
		return nil, err
	}
	id := folder.ID
	return &id, nil
}

func newConnectionCreateCmd(a *App) *cobra.Command {
	var flags connectionFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				folderID, err := flags.folderID(c.Tree.Snapshot(ctx))
				if err != nil {
					return err
				}
				created, err := c.Connections.Create(ctx, remote.ConnectionInput{
					DisplayName: flags.name,
					Description: flags.description,
					ServerHost:  flags.host,
					RASPort:     flags.port,
					FolderID:    folderID,
				})
				if err != nil {
					return err
				}
				if created == nil {
					fmt.Fprintln(a.out, "cancelled")
					return nil
				}
				if created.ID == 0 {
					fmt.Fprintf(a.out, "connection %s created\n", created.DisplayName)
					return nil
				}
				fmt.Fprintf(a.out, "connection %d created\n", created.ID)
				return nil
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func newConnectionUpdateCmd(a *App) *cobra.Command {
	var flags connectionFlags
	var root bool
	cmd := &cobra.Command{
		Use:   "update <connection>",
		Short: "Edit a connection; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				snap := c.Tree.Snapshot(ctx)
				conn, err := resolveConnection(snap, args[0])
				if err != nil {
					return err
				}
				input := remote.ConnectionInput{
					DisplayName: conn.DisplayName,
					Description: conn.Description,
					ServerHost:  conn.ServerHost,
					RASPort:     conn.RASPort,
					FolderID:    conn.FolderID,
				}
				set := cmd.Flags().Changed
				if set("name") {
					input.DisplayName = flags.name
				}
				if set("host") {
					input.ServerHost = flags.host
				}
				if set("port") {
					input.RASPort = flags.port
				}
				if set("description") {
					input.Description = flags.description
				}
				if set("folder") {
					if input.FolderID, err = flags.folderID(snap); err != nil {
						return err
					}
				}
				if root {
					input.FolderID = nil
				}
				return c.Connections.Update(ctx, conn.ID, input)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&root, "root", false, "Move the connection to the top level")
	return cmd
}

func newConnectionDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <connection>",
		Short: "Delete one connection",
		Long:  "Deletes one connection. Connections shared through a group go through the same group checks as the bulk delete command.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, err := resolveConnection(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				if conn.GroupID != nil {
					return a.bulkDelete(ctx, c, []int64{conn.ID})
				}
				confirm := &terminalConfirmer{app: a}
				prompt := dialog.Prompt{
					Title:        "Delete connection",
					Message:      fmt.Sprintf("Delete connection %s?", conn.Label()),
					ConfirmLabel: "Delete",
				}
				if confirm.Confirm(ctx, prompt).Wait(ctx) != dialog.Accepted {
					fmt.Fprintln(a.out, "cancelled")
					return nil
				}
				return c.Connections.Delete(ctx, conn.ID)
			})
		},
	}
}

func newConnectionMoveCmd(a *App) *cobra.Command {
	var folder, onto string
	var root bool
	cmd := &cobra.Command{
		Use:   "move <connection> (--folder <folder> | --onto <connection> | --root)",
		Short: "Move a connection into a folder, onto another connection's position, or to the top level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				snap := c.Tree.Snapshot(ctx)
				conn, err := resolveConnection(snap, args[0])
				if err != nil {
					return err
				}

				var target session.NodeRef
				switch {
				case folder != "":
					f, err := resolveFolder(snap, folder)
					if err != nil {
						return err
					}
					target = session.Folder(f.ID)
				case onto != "":
					other, err := resolveConnection(snap, onto)
					if err != nil {
						return err
					}
					target = session.Connection(other.ID)
				case root:
					target = session.EmptyArea()
				default:
					return apperrors.NewPrecondition("one of --folder, --onto or --root is required")
				}

				intent, err := c.Reorder.Move(ctx, session.Connection(conn.ID), target)
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
	cmd.Flags().StringVar(&folder, "folder", "", "Append to the end of this folder")
	cmd.Flags().StringVar(&onto, "onto", "", "Take the position of this connection")
	cmd.Flags().BoolVar(&root, "root", false, "Append to the top level")
	cmd.MarkFlagsMutuallyExclusive("folder", "onto", "root")
	return cmd
}
