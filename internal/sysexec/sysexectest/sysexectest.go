// Package sysexectest provides a scripted sysexec.Runner for tests.
package sysexectest

import (
	"context"
	"io"
	"strings"
	"sync"

	"newsctl/internal/sysexec"
)

// Response is what a scripted command writes and returns.
type Response struct {
	Stdout string
	Stderr string
	Err    error
}

// Runner records every command and answers from a script keyed by the
// command line ("name arg1 arg2"). Unscripted commands succeed silently.
type Runner struct {
	mu       sync.Mutex
	script   map[string]Response
	fallback func(sysexec.Cmd) Response
	calls    []sysexec.Cmd
}

// New returns an empty Runner.
func New() *Runner {
	return &Runner{script: make(map[string]Response)}
}

// On scripts the response for an exact command line.
func (r *Runner) On(cmdline string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script[cmdline] = resp
	return r
}

// Fallback answers commands that have no exact script entry.
func (r *Runner) Fallback(fn func(sysexec.Cmd) Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
	return r
}

// Run implements sysexec.Runner.
func (r *Runner) Run(ctx context.Context, c sysexec.Cmd) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	resp, ok := r.script[c.String()]
	if !ok && r.fallback != nil {
		resp = r.fallback(c)
	}
	r.mu.Unlock()

	if c.Stdout != nil && resp.Stdout != "" {
		_, _ = io.WriteString(c.Stdout, resp.Stdout)
	}
	if c.Stderr != nil && resp.Stderr != "" {
		_, _ = io.WriteString(c.Stderr, resp.Stderr)
	}
	return resp.Err
}

// Calls returns the command lines run so far.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Cmds returns the recorded commands with their full settings.
func (r *Runner) Cmds() []sysexec.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sysexec.Cmd(nil), r.calls...)
}

// Count returns how many recorded command lines start with prefix.
func (r *Runner) Count(prefix string) int {
	n := 0
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
