// Package lifecycle installs, starts, stops and removes the bot's service.
//
// Every operation is safe to repeat: installing twice leaves the same
// state as installing once, and uninstalling a never-installed service
// only prints notes.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/logger"
	"newsctl/internal/platform"
)

// Manager drives the service lifecycle against an init system.
type Manager struct {
	cfg      config.Config
	sys      platform.InitSystem
	out      io.Writer
	template []byte

	// Seams for tests.
	euid       func() int
	lookupUser func(name string) (*user.User, error)
	chown      func(path string, uid, gid int) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithEUID overrides the effective-uid lookup used for the privilege check.
func WithEUID(fn func() int) Option {
	return func(m *Manager) { m.euid = fn }
}

// WithUserLookup overrides how the run-as account is resolved.
func WithUserLookup(fn func(name string) (*user.User, error)) Option {
	return func(m *Manager) { m.lookupUser = fn }
}

// WithChown overrides how log directory ownership is set.
func WithChown(fn func(path string, uid, gid int) error) Option {
	return func(m *Manager) { m.chown = fn }
}

// New creates a Manager. template is the unit template rendered when the
// configuration names no unit source file.
func New(cfg config.Config, sys platform.InitSystem, template []byte, out io.Writer, opts ...Option) *Manager {
	m := &Manager{
		cfg:        cfg,
		sys:        sys,
		out:        out,
		template:   template,
		euid:       os.Geteuid,
		lookupUser: user.Lookup,
		chown:      os.Chown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) requireRoot(action string) error {
	if m.euid() == 0 {
		return nil
	}
	return apperr.New(apperr.ErrPrivilege,
		fmt.Sprintf("%s requires root privileges", action),
		"sudo newsctl "+action)
}

func (m *Manager) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Manager) note(format string, args ...any) {
	m.printf("  - "+format+"\n", args...)
}

// Start starts the installed service.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.requireRoot("start"); err != nil {
		return err
	}
	name := m.cfg.UnitName()

	state, err := m.sys.QueryUnitState(ctx, name)
	if err != nil {
		return err
	}
	if !state.Registered {
		return apperr.New(apperr.ErrNotInstalled,
			fmt.Sprintf("%s is not installed", name),
			"sudo newsctl install")
	}
	if state.Active {
		m.printf("%s is already running (PID %d)\n", name, state.MainPID)
		return nil
	}

	if err := m.sys.StartUnit(ctx, name); err != nil {
		return apperr.Wrap(apperr.ErrStepFailed, err,
			fmt.Sprintf("failed to start %s", name),
			"newsctl logs --stderr")
	}
	logger.Info("service started", "unit", name)
	m.printf("Started %s\n", name)
	return nil
}

// Stop stops the service. A service that is not running is left alone.
func (m *Manager) Stop(ctx context.Context) error {
	if err := m.requireRoot("stop"); err != nil {
		return err
	}
	name := m.cfg.UnitName()

	state, err := m.sys.QueryUnitState(ctx, name)
	if err != nil {
		return err
	}
	if !state.Registered {
		m.printf("%s is not installed; nothing to stop\n", name)
		return nil
	}
	if !state.Active {
		m.printf("%s is not running\n", name)
		return nil
	}

	if err := m.sys.StopUnit(ctx, name); err != nil {
		return apperr.Wrap(apperr.ErrStepFailed, err, fmt.Sprintf("failed to stop %s", name), "")
	}
	logger.Info("service stopped", "unit", name)
	m.printf("Stopped %s\n", name)
	return nil
}

// Restart restarts the service, starting it if it was stopped.
func (m *Manager) Restart(ctx context.Context) error {
	if err := m.requireRoot("restart"); err != nil {
		return err
	}
	name := m.cfg.UnitName()

	state, err := m.sys.QueryUnitState(ctx, name)
	if err != nil {
		return err
	}
	if !state.Registered {
		return apperr.New(apperr.ErrNotInstalled,
			fmt.Sprintf("%s is not installed", name),
			"sudo newsctl install")
	}

	if err := m.sys.RestartUnit(ctx, name); err != nil {
		return apperr.Wrap(apperr.ErrStepFailed, err,
			fmt.Sprintf("failed to restart %s", name),
			"newsctl logs --stderr")
	}
	logger.Info("service restarted", "unit", name)
	m.printf("Restarted %s\n", name)
	return nil
}

// resolveOwner returns the uid and gid of the run-as account.
func (m *Manager) resolveOwner() (int, int, error) {
	if m.cfg.RunAsUser == "" {
		return 0, 0, apperr.New(apperr.ErrMissingConfig,
			"no run-as user configured and SUDO_USER is not set",
			"set run_as_user in the newsctl config or run the command through sudo")
	}
	u, err := m.lookupUser(m.cfg.RunAsUser)
	if err != nil {
		return 0, 0, fmt.Errorf("unknown run-as user %q: %w", m.cfg.RunAsUser, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected uid %q for %s", u.Uid, u.Username)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected gid %q for %s", u.Gid, u.Username)
	}
	return uid, gid, nil
}
