package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/app"
	"github.com/charlesng35/rasconsole/internal/notifications"
	"github.com/charlesng35/rasconsole/pkg/logger"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
)

// App carries the state shared by all commands of one process.
type App struct {
	ConfigPath string
	// AssumeYes answers every confirmation with yes.
	AssumeYes bool

	in     *bufio.Reader
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer

	// NewController builds the controller on first use; tests replace it.
	NewController func(ctx context.Context, cfg *app.Config) (*Controller, error)

	config *app.Config
	ctrl   *Controller
	loaded bool
}

// NewApp returns an App bound to the given streams.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	a := &App{
		stdin:  in,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	a.NewController = func(ctx context.Context, cfg *app.Config) (*Controller, error) {
		return NewController(ctx, cfg, WithConfirmer(&terminalConfirmer{app: a}))
	}
	return a
}

// controller loads the config and builds the controller once.
func (a *App) controller(ctx context.Context) (*Controller, error) {
	if a.ctrl != nil {
		return a.ctrl, nil
	}
	cfg := a.config
	if cfg == nil {
		loaded, err := loadConfig(a.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		a.config = cfg
	}

	ctrl, err := a.NewController(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.ctrl = ctrl
	return ctrl, nil
}

func loadConfig(path string) (*app.Config, error) {
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := app.ConfigureLogging(cfg.Log); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	filled, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return nil, err
	}
	for key := range filled {
		logger.Debug("runtime default applied", zap.String("key", key))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases the controller.
func (a *App) Close() error {
	if a.ctrl == nil {
		return nil
	}
	err := a.ctrl.Close()
	a.ctrl = nil
	return err
}

// do runs fn against the controller, loading the tree first when it has not been loaded
// yet. Notifications published meanwhile are printed to the error stream; an error that was
// already shown that way comes back wrapped in errShown.
func (a *App) do(ctx context.Context, fn func(ctx context.Context, c *Controller) error) error {
	ctrl, err := a.controller(ctx)
	if err != nil {
		return err
	}

	ch, cancel := ctrl.Hub.Subscribe(64)
	var wg sync.WaitGroup
	shown := false
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := range ch {
			if n.Level == notifications.LevelError {
				shown = true
			}
			fmt.Fprintln(a.errOut, styleNotification(n))
		}
	}()

	err = func() error {
		if !a.loaded {
			if err := ctrl.Tree.LoadAll(ctx); err != nil {
				return err
			}
			a.loaded = true
		}
		return fn(ctx, ctrl)
	}()
	cancel()
	wg.Wait()

	if err != nil && shown {
		return errShown{err: err}
	}
	return err
}

func styleNotification(n notifications.Notification) string {
	switch n.Level {
	case notifications.LevelSuccess:
		return successStyle.Render("✓ " + n.Message)
	case notifications.LevelWarning:
		return warnStyle.Render("! " + n.Message)
	case notifications.LevelError:
		return errorStyle.Render("✗ " + n.Message)
	default:
		return infoStyle.Render("· " + n.Message)
	}
}

// errShown marks an error the user has already seen as a notification.
type errShown struct{ err error }

func (e errShown) Error() string { return e.err.Error() }
func (e errShown) Unwrap() error { return e.err }

// Execute runs one command line and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := NewApp(in, out, errOut)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
		_ = logger.Sync()
	}()
	return a.run(ctx, args)
}

func (a *App) run(ctx context.Context, args []string) int {
	cmd := NewRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var shown errShown
		if !errors.As(err, &shown) {
			fmt.Fprintln(a.errOut, errorStyle.Render("error: "+err.Error()))
		}
		return 1
	}
	return 0
}

func stdinFile(r io.Reader) (*os.File, bool) {
	f, ok := r.(*os.File)
	return f, ok
}
