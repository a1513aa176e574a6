package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/models"
	"newsctl/internal/platform/platformtest"
)

type harness struct {
	cfg    config.Config
	sys    *platformtest.InitSystem
	out    *bytes.Buffer
	m      *Manager
	chowns []string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	root := t.TempDir()
	unitDir := filepath.Join(root, "systemd")
	require.NoError(t, os.Mkdir(unitDir, 0o755))

	cfg := config.Default()
	cfg.InstallRoot = root
	cfg.LogDir = filepath.Join(root, "logs")
	cfg.EntryScript = filepath.Join(root, "main.py")
	cfg.UnitDir = unitDir
	cfg.RunAsUser = "newscaster"

	tmpl, err := os.ReadFile("../../deploy/newscaster-bot.service.tmpl")
	require.NoError(t, err)

	h := &harness{cfg: cfg, sys: platformtest.New(unitDir), out: &bytes.Buffer{}}
	base := []Option{
		WithEUID(func() int { return 0 }),
		WithUserLookup(func(name string) (*user.User, error) {
			if name != "newscaster" {
				return nil, user.UnknownUserError(name)
			}
			return &user.User{Username: name, Uid: "1001", Gid: "1001"}, nil
		}),
		WithChown(func(path string, uid, gid int) error {
			h.chowns = append(h.chowns, path)
			return nil
		}),
	}
	h.m = New(cfg, h.sys, tmpl, h.out, append(base, opts...)...)
	return h
}

func (h *harness) state(t *testing.T) models.ServiceState {
	t.Helper()
	s, err := h.sys.QueryUnitState(context.Background(), h.cfg.UnitName())
	require.NoError(t, err)
	return s
}

func TestInstall_RegistersAndEnablesWithoutStarting(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Install(context.Background()))

	s := h.state(t)
	assert.True(t, s.Registered)
	assert.True(t, s.Enabled)
	assert.False(t, s.Active, "install must not start the service")

	info, err := os.Stat(h.cfg.LogDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, []string{h.cfg.LogDir}, h.chowns)

	data, err := os.ReadFile(h.cfg.UnitPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "User=newscaster")
	assert.Contains(t, string(data), "--mode schedule")

	assert.Equal(t, []string{
		"install newscaster-bot.service",
		"reload",
		"enable newscaster-bot.service",
		"query newscaster-bot.service",
	}, h.sys.Calls())
	assert.Contains(t, h.out.String(), "[4/4]")
	assert.Contains(t, h.out.String(), "sudo newsctl start")
}

func TestInstall_Twice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Install(ctx))
	first := h.state(t)
	firstDef, _ := h.sys.Definition(h.cfg.UnitName())

	require.NoError(t, h.m.Install(ctx))
	second := h.state(t)
	secondDef, _ := h.sys.Definition(h.cfg.UnitName())

	assert.Equal(t, first, second)
	assert.Equal(t, firstDef, secondDef)
}

func TestInstall_RequiresRoot(t *testing.T) {
	h := newHarness(t, WithEUID(func() int { return 1000 }))

	err := h.m.Install(context.Background())
	require.ErrorIs(t, err, apperr.ErrPrivilege)
	assert.Equal(t, "sudo newsctl install", apperr.RemedyOf(err))
	assert.Empty(t, h.sys.Calls(), "nothing happens before the privilege check")

	_, statErr := os.Stat(h.cfg.LogDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstall_ReportsFailingStep(t *testing.T) {
	h := newHarness(t)
	h.sys.Fail = map[string]error{"reload": errors.New("bus timeout")}

	err := h.m.Install(context.Background())
	require.ErrorIs(t, err, apperr.ErrStepFailed)
	assert.Contains(t, err.Error(), "step 3/4")
	assert.Contains(t, err.Error(), "bus timeout")
	assert.NotContains(t, h.sys.Calls(), "enable newscaster-bot.service", "later steps are skipped")
}

func TestInstall_UnknownRunAsUser(t *testing.T) {
	h := newHarness(t)
	h.m.cfg.RunAsUser = "ghost"

	err := h.m.Install(context.Background())
	require.ErrorIs(t, err, apperr.ErrStepFailed)
	assert.Contains(t, err.Error(), "step 1/4")
	assert.Contains(t, err.Error(), "ghost")
}

func TestInstall_NoRunAsUser(t *testing.T) {
	h := newHarness(t)
	h.m.cfg.RunAsUser = ""

	err := h.m.Install(context.Background())
	require.ErrorIs(t, err, apperr.ErrStepFailed)
	require.ErrorIs(t, err, apperr.ErrMissingConfig)
	assert.NoDirExists(t, h.cfg.LogDir)
	assert.Empty(t, h.sys.Calls())
}

func TestInstall_CopiesUnitSourceVerbatim(t *testing.T) {
	h := newHarness(t)
	src := filepath.Join(h.cfg.InstallRoot, "custom.service")
	require.NoError(t, os.WriteFile(src, []byte("[Service]\nExecStart=/bin/true\n"), 0o644))
	h.m.cfg.UnitSource = src

	require.NoError(t, h.m.Install(context.Background()))

	data, err := os.ReadFile(h.cfg.UnitPath())
	require.NoError(t, err)
	assert.Equal(t, "[Service]\nExecStart=/bin/true\n", string(data))
}

func TestUninstall_NeverInstalled(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Uninstall(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "is not running")
	assert.Contains(t, out, "is not enabled")
	assert.Contains(t, out, "already absent")
	assert.Contains(t, out, "logs in")
	assert.Equal(t, 1, h.sys.Reloads(), "reload happens unconditionally")
	assert.NotContains(t, h.sys.Calls(), "stop newscaster-bot.service")
	assert.NotContains(t, h.sys.Calls(), "disable newscaster-bot.service")
}

func TestUninstall_RunningService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Install(ctx))
	require.NoError(t, h.m.Start(ctx))
	h.out.Reset()

	require.NoError(t, h.m.Uninstall(ctx))

	assert.False(t, h.state(t).Registered)
	out := h.out.String()
	assert.Contains(t, out, "stopped newscaster-bot.service")
	assert.Contains(t, out, "disabled newscaster-bot.service")
	assert.Contains(t, out, "removed "+h.cfg.UnitPath())
}

func TestUninstall_StopFailureIsOnlyANote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Install(ctx))
	require.NoError(t, h.m.Start(ctx))
	h.sys.Fail = map[string]error{"stop": errors.New("timeout")}

	require.NoError(t, h.m.Uninstall(ctx))
	assert.Contains(t, h.out.String(), "could not stop")
	_, err := os.Stat(h.cfg.UnitPath())
	assert.True(t, os.IsNotExist(err))
}

func TestUninstall_RequiresRoot(t *testing.T) {
	h := newHarness(t, WithEUID(func() int { return 1000 }))
	require.ErrorIs(t, h.m.Uninstall(context.Background()), apperr.ErrPrivilege)
}

func TestInstallThenUninstall_KeepsLogs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Install(ctx))
	logFile := h.cfg.OutputLog()
	require.NoError(t, os.WriteFile(logFile, []byte("digest sent\n"), 0o644))

	require.NoError(t, h.m.Uninstall(ctx))

	_, err := os.Stat(h.cfg.UnitPath())
	assert.True(t, os.IsNotExist(err), "unit file removed")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err, "log directory untouched")
	assert.Equal(t, "digest sent\n", string(data))
}

func TestStart_NotInstalled(t *testing.T) {
	h := newHarness(t)

	err := h.m.Start(context.Background())
	require.ErrorIs(t, err, apperr.ErrNotInstalled)
	assert.Equal(t, "sudo newsctl install", apperr.RemedyOf(err))
}

func TestStartStopRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Install(ctx))

	require.NoError(t, h.m.Start(ctx))
	assert.True(t, h.state(t).Active)

	require.NoError(t, h.m.Start(ctx))
	assert.Contains(t, h.out.String(), "already running")

	require.NoError(t, h.m.Stop(ctx))
	assert.False(t, h.state(t).Active)

	require.NoError(t, h.m.Stop(ctx))
	assert.Contains(t, h.out.String(), "is not running")

	require.NoError(t, h.m.Restart(ctx))
	assert.True(t, h.state(t).Active)
}

func TestStop_NotInstalledIsANote(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Stop(context.Background()))
	assert.Contains(t, h.out.String(), "nothing to stop")
}

func TestRestart_NotInstalled(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.m.Restart(context.Background()), apperr.ErrNotInstalled)
}
