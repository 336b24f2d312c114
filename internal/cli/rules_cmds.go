package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/charlesng35/rasconsole/internal/remote"
	"github.com/charlesng35/rasconsole/internal/services"
)

func newRulesCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Assignment rules of a working server",
		Long:  "Rule requests carry the cluster administrator credentials stored with creds set.",
	}
	cmd.AddCommand(newRulesListCmd(a))
	cmd.AddCommand(newRulesCreateCmd(a))
	cmd.AddCommand(newRulesUpdateCmd(a))
	cmd.AddCommand(newRulesDeleteCmd(a))
	cmd.AddCommand(newRulesApplyCmd(a))
	return cmd
}

// serverRef resolves "<connection> <cluster> <server-uuid>".
func serverRef(ctx context.Context, c *Controller, args []string) (services.ServerRef, error) {
	conn, cluster, err := openCluster(ctx, c, args[0], args[1])
	if err != nil {
		return services.ServerRef{}, err
	}
	return services.ServerRef{ConnectionID: conn.ID, ClusterUUID: cluster.UUID, ServerUUID: args[2]}, nil
}

type ruleFlags struct {
	position       int
	objectType     string
	infobase       string
	ruleType       string
	applicationExt string
	priority       int
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.position, "position", 0, "Position in the rule list")
	cmd.Flags().StringVar(&f.objectType, "object-type", "", "Object type the rule applies to")
	cmd.Flags().StringVar(&f.infobase, "infobase", "", "Infobase name")
	cmd.Flags().StringVar(&f.ruleType, "rule-type", "auto", "auto, always or never")
	cmd.Flags().StringVar(&f.applicationExt, "application-ext", "", "Application extension")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "Priority")
}

func (f *ruleFlags) input() remote.RuleInput {
	return remote.RuleInput{
		Position:       f.position,
		ObjectType:     f.objectType,
		InfobaseName:   f.infobase,
		RuleType:       f.ruleType,
		ApplicationExt: f.applicationExt,
		Priority:       f.priority,
	}
}

func newRulesListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <connection> <cluster> <server-uuid>",
		Short: "List rules",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				ref, err := serverRef(ctx, c, args)
				if err != nil {
					return err
				}
				rules, err := c.Rules.List(ctx, ref)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, rulesTable(rules))
				return nil
			})
		},
	}
}

func rulesTable(rules []remote.Rule) string {
	t := table.New().Headers("POS", "UUID", "OBJECT", "INFOBASE", "TYPE", "EXT", "PRIORITY")
	for _, rule := range rules {
		t.Row(strconv.Itoa(rule.Position), rule.UUID, rule.ObjectType, rule.InfobaseName,
			rule.RuleType, rule.ApplicationExt, strconv.Itoa(rule.Priority))
	}
	return t.String()
}

func newRulesCreateCmd(a *App) *cobra.Command {
	var flags ruleFlags
	cmd := &cobra.Command{
		Use:   "create <connection> <cluster> <server-uuid>",
		Short: "Create a rule",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				ref, err := serverRef(ctx, c, args)
				if err != nil {
					return err
				}
				return c.Rules.Create(ctx, ref, flags.input())
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("object-type")
	return cmd
}

func newRulesUpdateCmd(a *App) *cobra.Command {
	var flags ruleFlags
	cmd := &cobra.Command{
		Use:   "update <connection> <cluster> <server-uuid> <rule-uuid>",
		Short: "Replace a rule",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				ref, err := serverRef(ctx, c, args[:3])
				if err != nil {
					return err
				}
				return c.Rules.Update(ctx, ref, args[3], flags.input())
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("object-type")
	return cmd
}

func newRulesDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <connection> <cluster> <server-uuid> <rule-uuid>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				ref, err := serverRef(ctx, c, args[:3])
				if err != nil {
					return err
				}
				return c.Rules.Delete(ctx, ref, args[3])
			})
		},
	}
}

func newRulesApplyCmd(a *App) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "apply <connection> <cluster> <server-uuid>",
		Short: "Apply the rules of a working server",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), func(ctx context.Context, c *Controller) error {
				ref, err := serverRef(ctx, c, args)
				if err != nil {
					return err
				}
				return c.Rules.Apply(ctx, ref, full)
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Apply fully instead of partially")
	return cmd
}
