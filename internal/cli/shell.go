package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/pkg/logger"
)

const shellPrompt = "rasconsole> "

func newShellCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with one long-lived controller",
		Long: `Runs commands against one controller until exit or end of input. The tree, the opened
connection and loaded sections persist between commands, and orphaned local state is pruned
in the background. Type "help" for commands, "metrics" for counters when enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.Context())
		},
	}
}

func (a *App) runShell(ctx context.Context) error {
	if err := a.do(ctx, func(ctx context.Context, c *Controller) error {
		a.printTree(ctx, c)
		return nil
	}); err != nil {
		return err
	}
	if err := a.ctrl.Cleaner.Start(); err != nil {
		logger.Warn("maintenance scheduler not started", zap.Error(err))
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(a.errOut, shellPrompt)
		line, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.errOut)
				return nil
			}
			return err
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintln(a.errOut, errorStyle.Render("error: "+err.Error()))
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(a.errOut, dimStyle.Render("already in a shell"))
			continue
		case "metrics":
			a.printMetrics()
			continue
		}
		a.run(ctx, args)
	}
}

func (a *App) printMetrics() {
	if a.ctrl == nil || !a.ctrl.Config.Metrics.Enabled {
		fmt.Fprintln(a.errOut, dimStyle.Render("metrics are disabled (metrics.enabled)"))
		return
	}
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintln(a.errOut, errorStyle.Render("error: "+err.Error()))
		return
	}
	var lines []string
	for _, family := range families {
		name := family.GetName()
		if !strings.HasPrefix(name, "rasconsole_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			value := metric.GetCounter().GetValue()
			if h := metric.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", name, strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(a.out, line)
	}
}

// splitArgs splits a shell line into words. Single and double quotes group words and a
// backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
