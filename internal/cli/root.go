package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree bound to a.
func NewRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rasconsole",
		Short:         "Browse and manage RAS connections, clusters and their resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Show the connection tree
  rasconsole tree

  # Open a connection and load the working servers of a cluster
  rasconsole expand prod-ras "Main cluster" servers

  # Delete several connections at once
  rasconsole delete 12 14 15

  # Keep one controller alive for a whole session
  rasconsole shell
`),
	}

	cmd.PersistentFlags().StringVar(&a.ConfigPath, "config", a.ConfigPath, "Path to config.yaml or a directory containing it")
	cmd.PersistentFlags().BoolVarP(&a.AssumeYes, "yes", "y", a.AssumeYes, "Answer yes to every confirmation")

	cmd.AddCommand(newTreeCmd(a))
	cmd.AddCommand(newOpenCmd(a))
	cmd.AddCommand(newExpandCmd(a))
	cmd.AddCommand(newCollapseCmd(a))
	cmd.AddCommand(newFolderCmd(a))
	cmd.AddCommand(newConnectionCmd(a))
	cmd.AddCommand(newCredsCmd(a))
	cmd.AddCommand(newRulesCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newGroupCmd(a))
	cmd.AddCommand(newShellCmd(a))

	return cmd
}
