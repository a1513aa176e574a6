package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"newsctl/internal/logger"
	"newsctl/internal/models"
	"newsctl/internal/sysexec"
)

// Systemd implements InitSystem by shelling out to systemctl.
type Systemd struct {
	run     sysexec.Runner
	unitDir string
}

// NewSystemd creates a systemd init system whose unit files live in unitDir.
func NewSystemd(run sysexec.Runner, unitDir string) *Systemd {
	return &Systemd{run: run, unitDir: unitDir}
}

func (p *Systemd) Name() string {
	return "systemd"
}

// showProperties are read by QueryUnitState via systemctl show.
var showProperties = []string{
	"LoadState",
	"ActiveState",
	"SubState",
	"UnitFileState",
	"MainPID",
	"ActiveEnterTimestamp",
}

func (p *Systemd) QueryUnitState(ctx context.Context, name string) (models.ServiceState, error) {
	name = unitName(name)
	out, err := sysexec.Output(ctx, p.run, "systemctl", "show", name,
		"--timestamp=unix", "--property="+strings.Join(showProperties, ","))
	if err != nil {
		return models.ServiceState{}, fmt.Errorf("systemctl show %s failed: %w", name, err)
	}
	return parseShow(name, out)
}

// parseShow turns systemctl show KEY=VALUE output into a ServiceState.
func parseShow(name string, out []byte) (models.ServiceState, error) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		props[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return models.ServiceState{}, fmt.Errorf("failed to parse systemctl output: %w", err)
	}

	state := models.ServiceState{Name: name}

	load := props["LoadState"]
	if load == "" || load == "not-found" {
		return state, nil
	}
	state.Registered = true
	state.ActiveState = props["ActiveState"]
	state.SubState = props["SubState"]

	switch props["UnitFileState"] {
	case "enabled", "enabled-runtime":
		state.Enabled = true
	}

	switch state.ActiveState {
	case "active", "reloading":
		state.Active = true
	}

	if pid, err := strconv.Atoi(props["MainPID"]); err == nil && pid > 0 {
		state.MainPID = pid
	}

	if ts, ok := parseTimestamp(props["ActiveEnterTimestamp"]); ok && state.Active {
		state.ActiveSince = ts
	}

	return state, nil
}

// QueryUnitState asks for "@1705314600" timestamps. systemd versions that
// ignore --timestamp print "Mon 2024-01-15 10:30:00 UTC" in local time.
const systemdTimeLayout = "Mon 2006-01-02 15:04:05 MST"

func parseTimestamp(v string) (time.Time, bool) {
	if v == "" || v == "n/a" {
		return time.Time{}, false
	}
	if strings.HasPrefix(v, "@") {
		secs, err := strconv.ParseInt(v[1:], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), true
	}
	ts, err := time.Parse(systemdTimeLayout, v)
	if err != nil {
		logger.Debug("unrecognized systemd timestamp", "value", v, "error", err)
		return time.Time{}, false
	}
	return ts, true
}

func (p *Systemd) InstallUnit(ctx context.Context, name string, definition []byte) error {
	path := filepath.Join(p.unitDir, unitName(name))

	// Write then rename so systemd never sees a half-written unit.
	tmp, err := os.CreateTemp(p.unitDir, "."+unitName(name)+".*")
	if err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(definition); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install unit file %s: %w", path, err)
	}
	return nil
}

func (p *Systemd) RemoveUnit(ctx context.Context, name string) (bool, error) {
	path := filepath.Join(p.unitDir, unitName(name))
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete unit file: %w", err)
	}
	return true, nil
}

func (p *Systemd) ReloadDaemon(ctx context.Context) error {
	if out, err := sysexec.CombinedOutput(ctx, p.run, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload failed: %s", failureText(out, err))
	}
	return nil
}

func (p *Systemd) runSystemctl(ctx context.Context, action, name string) error {
	name = unitName(name)
	if out, err := sysexec.CombinedOutput(ctx, p.run, "systemctl", action, name); err != nil {
		return fmt.Errorf("systemctl %s failed: %s", action, failureText(out, err))
	}
	return nil
}

func (p *Systemd) EnableUnit(ctx context.Context, name string) error {
	return p.runSystemctl(ctx, "enable", name)
}

func (p *Systemd) DisableUnit(ctx context.Context, name string) error {
	return p.runSystemctl(ctx, "disable", name)
}

func (p *Systemd) StartUnit(ctx context.Context, name string) error {
	return p.runSystemctl(ctx, "start", name)
}

func (p *Systemd) StopUnit(ctx context.Context, name string) error {
	return p.runSystemctl(ctx, "stop", name)
}

func (p *Systemd) RestartUnit(ctx context.Context, name string) error {
	return p.runSystemctl(ctx, "restart", name)
}

// unitName ensures the .service suffix.
func unitName(name string) string {
	if !strings.HasSuffix(name, ".service") {
		return name + ".service"
	}
	return name
}

func failureText(out []byte, err error) string {
	if s := strings.TrimSpace(string(out)); s != "" {
		return s
	}
	return err.Error()
}
