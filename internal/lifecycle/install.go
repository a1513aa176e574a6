package lifecycle

import (
	"context"
	"fmt"
	"os"

	"newsctl/internal/apperr"
	"newsctl/internal/logger"
	"newsctl/internal/unit"
)

type step struct {
	name string
	run  func(context.Context) error
}

// Install registers the service and enables it at boot. It does not start
// it. Steps run in order and the first failure aborts; every step can be
// re-run safely, so nothing is rolled back.
func (m *Manager) Install(ctx context.Context) error {
	if err := m.requireRoot("install"); err != nil {
		return err
	}
	name := m.cfg.UnitName()

	steps := []step{
		{"ensure log directory " + m.cfg.LogDir, m.ensureLogDir},
		{"install unit definition " + m.cfg.UnitPath(), m.installUnit},
		{"reload " + m.sys.Name() + " configuration", m.sys.ReloadDaemon},
		{"enable " + name + " at boot", func(ctx context.Context) error {
			return m.sys.EnableUnit(ctx, name)
		}},
	}

	m.printf("Installing %s\n", name)
	for i, s := range steps {
		m.printf("[%d/%d] %s\n", i+1, len(steps), s.name)
		if err := s.run(ctx); err != nil {
			logger.Error("install step failed", "step", i+1, "name", s.name, "error", err)
			return apperr.Wrap(apperr.ErrStepFailed, err,
				fmt.Sprintf("install step %d/%d (%s) failed", i+1, len(steps), s.name),
				"fix the cause above and re-run: sudo newsctl install")
		}
	}

	m.printf("\n%s installed and enabled.\n", name)
	m.printf("Start it with:  sudo newsctl start\n")
	m.printf("Check it with:  newsctl status\n")
	return nil
}

func (m *Manager) ensureLogDir(ctx context.Context) error {
	uid, gid, err := m.resolveOwner()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", m.cfg.LogDir, err)
	}
	info, err := os.Stat(m.cfg.LogDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", m.cfg.LogDir)
	}
	if err := m.chown(m.cfg.LogDir, uid, gid); err != nil {
		return fmt.Errorf("failed to set owner of %s to %s: %w", m.cfg.LogDir, m.cfg.RunAsUser, err)
	}
	return nil
}

// unitDefinition returns the configured unit source file verbatim, or the
// built-in template rendered for this configuration.
func (m *Manager) unitDefinition() ([]byte, error) {
	if m.cfg.UnitSource != "" {
		data, err := os.ReadFile(m.cfg.UnitSource)
		if err != nil {
			return nil, fmt.Errorf("failed to read unit source: %w", err)
		}
		return data, nil
	}
	return unit.Render(m.template, unit.FromConfig(m.cfg))
}

func (m *Manager) installUnit(ctx context.Context) error {
	def, err := m.unitDefinition()
	if err != nil {
		return err
	}
	return m.sys.InstallUnit(ctx, m.cfg.UnitName(), def)
}
