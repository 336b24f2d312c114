package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/charlesng35/rasconsole/internal/dialog"
)

// terminalConfirmer asks on the error stream and reads the answer from the input.
type terminalConfirmer struct {
	app *App
}

func (t *terminalConfirmer) Confirm(_ context.Context, prompt dialog.Prompt) *dialog.Future {
	a := t.app
	if a.AssumeYes {
		return dialog.Resolved(dialog.Accepted)
	}

	if prompt.Title != "" {
		fmt.Fprintln(a.errOut, titleStyle.Render(prompt.Title))
	}
	if prompt.Message != "" {
		fmt.Fprintln(a.errOut, prompt.Message)
	}
	for _, line := range prompt.Details {
		fmt.Fprintln(a.errOut, dimStyle.Render("  "+line))
	}
	label := prompt.ConfirmLabel
	if label == "" {
		label = "Proceed"
	}
	fmt.Fprintf(a.errOut, "%s? [y/N] ", label)

	answer, err := a.readLine()
	if err != nil {
		fmt.Fprintln(a.errOut)
		return dialog.Resolved(dialog.Declined)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return dialog.Resolved(dialog.Accepted)
	default:
		return dialog.Resolved(dialog.Declined)
	}
}

// readLine reads one line of input without the line terminator. A last line without a
// newline is returned as is.
func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret reads a password without echo when the input is a terminal.
func (a *App) readSecret(label string) (string, error) {
	fmt.Fprintf(a.errOut, "%s: ", label)
	if f, ok := stdinFile(a.stdin); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return a.readLine()
}
