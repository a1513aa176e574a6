// Package health builds the read-only status report for the bot service.
package health

import (
	"context"
	"time"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/logger"
	"newsctl/internal/logtail"
	"newsctl/internal/models"
	"newsctl/internal/platform"
)

// TailLines is how many lines of the output log the report includes.
const TailLines = 10

// Verdict is the overall outcome of a check.
type Verdict string

const (
	Healthy      Verdict = "healthy"
	NotInstalled Verdict = "not-installed"
	NotRunning   Verdict = "not-running"
)

// Report is the composite result of one check.
type Report struct {
	Service     string            `json:"service"`
	Verdict     Verdict           `json:"verdict"`
	Installed   bool              `json:"installed"`
	Enabled     bool              `json:"enabled"`
	Running     bool              `json:"running"`
	Status      string            `json:"status"`
	MainPID     int               `json:"mainPid,omitempty"`
	ActiveSince time.Time         `json:"activeSince,omitzero"`
	Logs        []logtail.Summary `json:"logs,omitempty"`
	Tail        []string          `json:"tail,omitempty"`
	ErrorLog    string            `json:"errorLog"`
	CheckedAt   time.Time         `json:"checkedAt"`
}

// Healthy reports whether the service is installed and running.
func (r Report) Healthy() bool { return r.Verdict == Healthy }

// ExitCode is 0 only for a healthy service.
func (r Report) ExitCode() int {
	if r.Healthy() {
		return 0
	}
	return 1
}

// Err returns the classified failure for an unhealthy report, or nil.
func (r Report) Err() error {
	switch r.Verdict {
	case NotInstalled:
		return apperr.New(apperr.ErrNotInstalled, r.Service+" is not installed", "sudo newsctl install")
	case NotRunning:
		return apperr.New(apperr.ErrNotRunning, r.Service+" is not running", "sudo newsctl start")
	default:
		return nil
	}
}

// Checker queries the init system and the log files. It never changes
// anything.
type Checker struct {
	cfg config.Config
	sys platform.InitSystem
	now func() time.Time
}

// NewChecker creates a Checker.
func NewChecker(cfg config.Config, sys platform.InitSystem) *Checker {
	return &Checker{cfg: cfg, sys: sys, now: time.Now}
}

// Check runs the checks in order and stops at the first one that makes
// the service unhealthy. A non-nil error means the init system could not
// be queried at all.
func (c *Checker) Check(ctx context.Context) (Report, error) {
	r := Report{
		Service:   c.cfg.UnitName(),
		ErrorLog:  c.cfg.ErrorLog(),
		CheckedAt: c.now(),
	}

	state, err := c.sys.QueryUnitState(ctx, r.Service)
	if err != nil {
		return r, err
	}
	r.Status = state.Status()

	if !state.Registered {
		r.Verdict = NotInstalled
		return r, nil
	}
	r.Installed = true
	r.Enabled = state.Enabled

	if !state.Active {
		r.Verdict = NotRunning
		return r, nil
	}
	r.Running = true
	r.Verdict = Healthy
	r.MainPID = state.MainPID
	r.ActiveSince = state.ActiveSince

	for _, l := range []struct{ name, path string }{
		{"output", c.cfg.OutputLog()},
		{"error", c.cfg.ErrorLog()},
	} {
		s, err := logtail.Stat(l.name, l.path)
		if err != nil {
			// An unreadable log does not fail the check; Exists and Size
			// still reflect the file.
			logger.Warn("could not read log", "path", l.path, "error", err)
		}
		r.Logs = append(r.Logs, s)
	}

	if tail, err := logtail.Tail(c.cfg.OutputLog(), TailLines); err == nil {
		r.Tail = tail
	}
	return r, nil
}

// StateOf is a convenience for callers that only need the raw state.
func (c *Checker) StateOf(ctx context.Context) (models.ServiceState, error) {
	return c.sys.QueryUnitState(ctx, c.cfg.UnitName())
}
