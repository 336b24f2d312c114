package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/charlesng35/rasconsole/internal/overlay"
	"github.com/charlesng35/rasconsole/internal/remote"
)

func newCredsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Cluster administrator credentials kept on this machine",
		Long: `Cluster administrator credentials are stored locally and added to every request
against that cluster. They are never sent to the server for storage.`,
	}
	cmd.AddCommand(newCredsShowCmd(a))
	cmd.AddCommand(newCredsSetCmd(a))
	cmd.AddCommand(newCredsClearCmd(a))
	return cmd
}

// openCluster resolves "<connection> <cluster>", opening the connection when needed.
func openCluster(ctx context.Context, c *Controller, connArg, clusterArg string) (remote.Connection, remote.Cluster, error) {
	conn, err := resolveConnection(c.Tree.Snapshot(ctx), connArg)
	if err != nil {
		return remote.Connection{}, remote.Cluster{}, err
	}
	if err := ensureOpen(ctx, c, conn); err != nil {
		return remote.Connection{}, remote.Cluster{}, err
	}
	cluster, err := resolveCluster(c.Tree.Snapshot(ctx).Active, clusterArg)
	if err != nil {
		return remote.Connection{}, remote.Cluster{}, err
	}
	return conn, cluster, nil
}

func newCredsShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <connection>",
		Short: "List the stored logins of a connection's clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, err := resolveConnection(c.Tree.Snapshot(ctx), args[0])
				if err != nil {
					return err
				}
				records := c.State.Credentials(ctx, conn.ID)
				if len(records) == 0 {
					fmt.Fprintln(a.out, "no stored credentials")
					return nil
				}
				uuids := make([]string, 0, len(records))
				for uuid := range records {
					uuids = append(uuids, uuid)
				}
				sort.Strings(uuids)
				for _, uuid := range uuids {
					record := records[uuid]
					password := ""
					if record.Password != "" {
						password = overlay.MaskedPassword
					}
					fmt.Fprintf(a.out, "%s\t%s\t%s\n", uuid, record.Admin, password)
				}
				return nil
			})
		},
	}
}

func newCredsSetCmd(a *App) *cobra.Command {
	var admin, password string
	var clearPassword, promptPassword bool
	cmd := &cobra.Command{
		Use:   "set <connection> <cluster>",
		Short: "Store the administrator login of a cluster and reload its open sections",
		Long: `Stores the administrator login of a cluster. Without --password the stored password is
kept; --prompt-password reads a new one without echo (an empty answer keeps it) and
--clear-password removes it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, cluster, err := openCluster(ctx, c, args[0], args[1])
				if err != nil {
					return err
				}

				edit := c.Overlay.BeginEdit(ctx, conn.ID, cluster.UUID)
				if cmd.Flags().Changed("admin") {
					edit.SetAdmin(admin)
				}
				switch {
				case clearPassword:
					edit.SetPassword("")
				case cmd.Flags().Changed("password"):
					edit.SetPassword(password)
				case promptPassword:
					value, err := a.readSecret("Password")
					if err != nil {
						return err
					}
					if value != "" {
						edit.SetPassword(value)
					}
				}

				_, err = c.Overlay.SaveAndRefresh(ctx, edit, func(ctx context.Context) error {
					return c.RefreshCluster(ctx, conn.ID, cluster.UUID)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "credentials for %s saved\n", clusterName(cluster))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "Cluster administrator login")
	cmd.Flags().StringVar(&password, "password", "", "Cluster administrator password")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Read the password from the terminal")
	cmd.Flags().BoolVar(&clearPassword, "clear-password", false, "Remove the stored password")
	cmd.MarkFlagsMutuallyExclusive("password", "prompt-password", "clear-password")
	return cmd
}

func newCredsClearCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <connection> <cluster>",
		Short: "Forget the administrator login of a cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				conn, cluster, err := openCluster(ctx, c, args[0], args[1])
				if err != nil {
					return err
				}
				if err := c.Overlay.Clear(ctx, conn.ID, cluster.UUID); err != nil {
					return err
				}
				return c.RefreshCluster(ctx, conn.ID, cluster.UUID)
			})
		},
	}
}
