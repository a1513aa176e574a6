package lifecycle

import (
	"context"
	"fmt"

	"newsctl/internal/apperr"
	"newsctl/internal/logger"
)

// Uninstall reverses Install. Elements that are already gone are noted,
// not treated as failures. Log files are never removed.
func (m *Manager) Uninstall(ctx context.Context) error {
	if err := m.requireRoot("uninstall"); err != nil {
		return err
	}
	name := m.cfg.UnitName()
	m.printf("Uninstalling %s\n", name)

	state, err := m.sys.QueryUnitState(ctx, name)
	if err != nil {
		// Without state we still try every step; each tolerates absence.
		logger.Warn("could not query unit state", "unit", name, "error", err)
		state.Registered, state.Active, state.Enabled = true, true, true
	}

	if !state.Active {
		m.note("%s is not running", name)
	} else if err := m.sys.StopUnit(ctx, name); err != nil {
		m.note("could not stop %s: %v", name, err)
	} else {
		m.note("stopped %s", name)
	}

	if !state.Enabled {
		m.note("%s is not enabled", name)
	} else if err := m.sys.DisableUnit(ctx, name); err != nil {
		m.note("could not disable %s: %v", name, err)
	} else {
		m.note("disabled %s", name)
	}

	removed, err := m.sys.RemoveUnit(ctx, name)
	if err != nil {
		return apperr.Wrap(apperr.ErrStepFailed, err,
			fmt.Sprintf("failed to remove %s", m.cfg.UnitPath()),
			"remove it by hand, then run: sudo systemctl daemon-reload")
	}
	if removed {
		m.note("removed %s", m.cfg.UnitPath())
	} else {
		m.note("%s is already absent", m.cfg.UnitPath())
	}

	if err := m.sys.ReloadDaemon(ctx); err != nil {
		m.note("could not reload %s: %v", m.sys.Name(), err)
	} else {
		m.note("reloaded %s configuration", m.sys.Name())
	}

	m.printf("\n%s uninstalled.\n", name)
	m.printf("Note: logs in %s were kept; delete them yourself if no longer needed.\n", m.cfg.LogDir)
	return nil
}
