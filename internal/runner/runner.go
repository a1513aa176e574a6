// Package runner starts the bot in the foreground, outside the service
// manager, for manual runs.
package runner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/sysexec"
)

// Mode is the bot's --mode argument.
type Mode string

const (
	// ModeOnce sends one digest, then stays connected for commands.
	ModeOnce Mode = "once"
	// ModeSchedule sends a digest now and every six hours after.
	ModeSchedule Mode = "schedule"
)

// ParseMode validates a --mode value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOnce, ModeSchedule:
		return Mode(s), nil
	}
	return "", apperr.New(apperr.ErrInvalidSelection,
		fmt.Sprintf("unknown mode %q", s),
		"use --mode once or --mode schedule")
}

// Launcher runs the bot in the foreground until it exits.
type Launcher interface {
	Launch(ctx context.Context, mode Mode) error
}

// Bot launches the bot's entry script with the configured interpreter.
type Bot struct {
	Config config.Config
	Runner sysexec.Runner

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Launch implements Launcher.
func (b *Bot) Launch(ctx context.Context, mode Mode) error {
	err := b.Runner.Run(ctx, sysexec.Cmd{
		Name:   b.Config.Interpreter,
		Args:   []string{b.Config.EntryScript, "--mode", string(mode)},
		Dir:    b.Config.InstallRoot,
		Env:    []string{"PYTHONUNBUFFERED=1"},
		Stdin:  b.Stdin,
		Stdout: b.Stdout,
		Stderr: b.Stderr,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted by the operator.
			return nil
		}
		return fmt.Errorf("bot exited: %w", err)
	}
	return nil
}

// Menu is the interactive front end.
type Menu struct {
	In       io.Reader
	Out      io.Writer
	Launcher Launcher
}

const menuText = `Newscaster Bot
  1) Run once, then stay online for commands
  2) Run on a schedule (every 6 hours)
  3) Exit
`

// Run shows the menu, reads one choice and acts on it.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Fprint(m.Out, menuText)
	fmt.Fprint(m.Out, "Choose [1-3]: ")

	line, err := readLine(m.In)
	if err != nil && line == "" {
		fmt.Fprintln(m.Out)
		return apperr.Wrap(apperr.ErrInvalidSelection, err, "no selection made", "enter 1, 2 or 3")
	}

	switch choice := strings.TrimSpace(line); choice {
	case "1":
		fmt.Fprintln(m.Out, "Starting bot in single-run mode (Ctrl+C to stop)")
		return m.Launcher.Launch(ctx, ModeOnce)
	case "2":
		fmt.Fprintln(m.Out, "Starting bot in scheduled mode (Ctrl+C to stop)")
		return m.Launcher.Launch(ctx, ModeSchedule)
	case "3":
		fmt.Fprintln(m.Out, "Bye.")
		return nil
	default:
		return apperr.New(apperr.ErrInvalidSelection,
			fmt.Sprintf("invalid selection %q", choice),
			"enter 1, 2 or 3")
	}
}

// readLine reads up to and including the next newline one byte at a time,
// so everything after the choice is left for the bot's stdin.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sb.WriteByte(buf[0])
			if buf[0] == '\n' {
				return sb.String(), nil
			}
		}
		if err != nil {
			return sb.String(), err
		}
	}
}
