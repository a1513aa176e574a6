// Package sysexec runs external commands (systemctl, pip, the bot itself).
package sysexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"newsctl/internal/logger"
)

// Cmd describes one external command invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  []string // appended to the current environment

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands, blocking until they finish.
type Runner interface {
	Run(ctx context.Context, c Cmd) error
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Cmd, e.Code, e.Output)
	}
	return fmt.Sprintf("%s exited with status %d", e.Cmd, e.Code)
}

// OS runs commands as child processes.
type OS struct{}

// Run implements Runner.
func (OS) Run(ctx context.Context, c Cmd) error {
	logger.Debug("exec", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	// Keep a copy of stderr for the error message when the caller
	// does not collect it.
	var errBuf bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &errBuf
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ee, ok := err.(*exec.ExitError); ok {
		logger.Debug("exec failed", "cmd", c.String(), "code", ee.ExitCode())
		return &ExitError{Cmd: c.String(), Code: ee.ExitCode(), Output: strings.TrimSpace(errBuf.String())}
	}
	return fmt.Errorf("failed to run %s: %w", c.Name, err)
}

// Output runs name with args and returns its standard output.
func Output(ctx context.Context, r Runner, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	err := r.Run(ctx, Cmd{Name: name, Args: args, Stdout: &out})
	return out.Bytes(), err
}

// CombinedOutput runs name with args and returns stdout and stderr together.
func CombinedOutput(ctx context.Context, r Runner, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	err := r.Run(ctx, Cmd{Name: name, Args: args, Stdout: &out, Stderr: &out})
	return out.Bytes(), err
}
