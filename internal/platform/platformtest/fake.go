// Package platformtest provides an in-memory init system for tests.
package platformtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"newsctl/internal/models"
)

// InitSystem is an in-memory platform.InitSystem. When UnitDir is set,
// installed definitions are also written there so tests can inspect the
// filesystem.
type InitSystem struct {
	UnitDir string

	// Fail makes the named operation ("reload", "enable", "stop", ...)
	// return the given error.
	Fail map[string]error

	// Now stamps ActiveSince when a unit starts.
	Now func() time.Time

	mu      sync.Mutex
	units   map[string]*unit
	reloads int
	calls   []string
}

type unit struct {
	definition []byte
	loaded     bool // seen by the daemon since the last reload
	enabled    bool
	active     bool
	pid        int
	since      time.Time
}

// New returns an empty fake backed by unitDir (may be empty).
func New(unitDir string) *InitSystem {
	return &InitSystem{UnitDir: unitDir, units: make(map[string]*unit)}
}

// SetState forces a unit's state, registering it if needed.
func (f *InitSystem) SetState(name string, s models.ServiceState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = unitName(name)
	if !s.Registered {
		delete(f.units, name)
		return
	}
	u := f.lookup(name)
	u.loaded = true
	u.enabled = s.Enabled
	u.active = s.Active
	u.pid = s.MainPID
	u.since = s.ActiveSince
}

// Calls returns the operations performed, in order.
func (f *InitSystem) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Reloads returns how many times the daemon was reloaded.
func (f *InitSystem) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// Definition returns the installed definition of a unit.
func (f *InitSystem) Definition(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[unitName(name)]
	if !ok || u.definition == nil {
		return nil, false
	}
	return append([]byte(nil), u.definition...), true
}

func (f *InitSystem) Name() string { return "fake" }

func (f *InitSystem) QueryUnitState(ctx context.Context, name string) (models.ServiceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = unitName(name)
	if err := f.record("query", name); err != nil {
		return models.ServiceState{}, err
	}
	state := models.ServiceState{Name: name, ActiveState: "inactive", SubState: "dead"}
	u, ok := f.units[name]
	if !ok || !u.loaded {
		return models.ServiceState{Name: name}, nil
	}
	state.Registered = true
	state.Enabled = u.enabled
	if u.active {
		state.Active = true
		state.ActiveState = "active"
		state.SubState = "running"
		state.MainPID = u.pid
		state.ActiveSince = u.since
	}
	return state, nil
}

func (f *InitSystem) InstallUnit(ctx context.Context, name string, definition []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = unitName(name)
	if err := f.record("install", name); err != nil {
		return err
	}
	if f.UnitDir != "" {
		if err := os.WriteFile(filepath.Join(f.UnitDir, name), definition, 0o644); err != nil {
			return err
		}
	}
	f.lookup(name).definition = append([]byte(nil), definition...)
	return nil
}

func (f *InitSystem) RemoveUnit(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = unitName(name)
	if err := f.record("remove", name); err != nil {
		return false, err
	}
	removed := false
	if f.UnitDir != "" {
		err := os.Remove(filepath.Join(f.UnitDir, name))
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, os.ErrNotExist):
			return false, err
		}
	}
	if u, ok := f.units[name]; ok && u.definition != nil {
		u.definition = nil
		removed = true
	}
	return removed, nil
}

func (f *InitSystem) ReloadDaemon(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("reload", ""); err != nil {
		return err
	}
	f.reloads++
	for name, u := range f.units {
		if u.definition == nil {
			delete(f.units, name)
			continue
		}
		u.loaded = true
	}
	return nil
}

func (f *InitSystem) EnableUnit(ctx context.Context, name string) error {
	return f.mutate("enable", name, func(u *unit) { u.enabled = true })
}

func (f *InitSystem) DisableUnit(ctx context.Context, name string) error {
	return f.mutate("disable", name, func(u *unit) { u.enabled = false })
}

func (f *InitSystem) StartUnit(ctx context.Context, name string) error {
	return f.mutate("start", name, f.start)
}

func (f *InitSystem) StopUnit(ctx context.Context, name string) error {
	return f.mutate("stop", name, func(u *unit) {
		u.active = false
		u.pid = 0
		u.since = time.Time{}
	})
}

func (f *InitSystem) RestartUnit(ctx context.Context, name string) error {
	return f.mutate("restart", name, f.start)
}

func (f *InitSystem) start(u *unit) {
	if u.active {
		return
	}
	u.active = true
	u.pid = 1000 + len(f.calls)
	if f.Now != nil {
		u.since = f.Now()
	} else {
		u.since = time.Now()
	}
}

func (f *InitSystem) mutate(op, name string, fn func(*unit)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = unitName(name)
	if err := f.record(op, name); err != nil {
		return err
	}
	u, ok := f.units[name]
	if !ok || !u.loaded {
		return errors.New("Unit " + name + " not loaded.")
	}
	fn(u)
	return nil
}

func (f *InitSystem) record(op, name string) error {
	f.calls = append(f.calls, strings.TrimSpace(op+" "+name))
	return f.Fail[op]
}

func (f *InitSystem) lookup(name string) *unit {
	u, ok := f.units[name]
	if !ok {
		u = &unit{}
		f.units[name] = u
	}
	return u
}

func unitName(name string) string {
	if !strings.HasSuffix(name, ".service") {
		return name + ".service"
	}
	return name
}
