package platform

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"newsctl/internal/models"
	"newsctl/internal/sysexec"
)

// InitSystem is the narrow set of init-system capabilities the lifecycle
// commands need. Names are full unit names ("newscaster-bot.service").
type InitSystem interface {
	// Name returns the init system name (e.g., "systemd")
	Name() string

	// QueryUnitState reads the current state of a unit. An unknown unit
	// yields Registered=false and a nil error.
	QueryUnitState(ctx context.Context, name string) (models.ServiceState, error)

	// InstallUnit writes a unit definition, replacing any previous one.
	InstallUnit(ctx context.Context, name string, definition []byte) error

	// RemoveUnit deletes a unit definition. It reports whether a file was
	// removed; absence is not an error.
	RemoveUnit(ctx context.Context, name string) (bool, error)

	// ReloadDaemon makes the init system re-read unit definitions.
	ReloadDaemon(ctx context.Context) error

	// EnableUnit enables a unit to start at boot
	EnableUnit(ctx context.Context, name string) error

	// DisableUnit disables a unit from starting at boot
	DisableUnit(ctx context.Context, name string) error

	// StartUnit starts a unit
	StartUnit(ctx context.Context, name string) error

	// StopUnit stops a unit
	StopUnit(ctx context.Context, name string) error

	// RestartUnit restarts a unit
	RestartUnit(ctx context.Context, name string) error
}

// Detect returns the init system for this host, with units kept in unitDir.
func Detect(unitDir string) (InitSystem, error) {
	switch runtime.GOOS {
	case "linux":
		// Check if systemd is available
		if _, err := os.Stat("/run/systemd/system"); err == nil {
			return NewSystemd(sysexec.OS{}, unitDir), nil
		}
		return nil, fmt.Errorf("systemd not detected on this Linux system")
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
