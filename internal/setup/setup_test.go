package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/sysexec/sysexectest"
)

const completeEnv = `ROUTELLM_API_KEY=sk-test
ROUTELLM_ENDPOINT=https://router.example/v1
ROUTELLM_MODEL=gpt-test
NEWS_API_AI=news
CRYPTOCOMPARE_API_KEY=crypto
DISCORD_BOT_TOKEN=token
DISCORD_CHANNEL_ID=12345
`

type fixture struct {
	cfg    config.Config
	runner *sysexectest.Runner
	out    *bytes.Buffer
	asked  []string
}

func newFixture(t *testing.T, env string) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.InstallRoot = root
	cfg.EnvFile = filepath.Join(root, ".env")
	cfg.EntryScript = filepath.Join(root, "main.py")
	cfg.RequirementsFile = filepath.Join(root, "requirements.txt")
	cfg.Interpreter = "python3"

	if env != "" {
		require.NoError(t, os.WriteFile(cfg.EnvFile, []byte(env), 0o600))
	}
	require.NoError(t, os.WriteFile(cfg.EntryScript, []byte("print('hi')\n"), 0o644))

	return &fixture{cfg: cfg, runner: sysexectest.New(), out: &bytes.Buffer{}}
}

func (f *fixture) wizard(answer bool) *Wizard {
	return &Wizard{
		Config: f.cfg,
		Runner: f.runner,
		Out:    f.out,
		Confirm: func(q string) bool {
			f.asked = append(f.asked, q)
			return answer
		},
		EnvExample: []byte("DISCORD_BOT_TOKEN=\n"),
		LookPath: func(file string) (string, error) {
			if file == "python3" {
				return "/usr/bin/python3", nil
			}
			return "", errors.New("not found")
		},
	}
}

func TestRun_AllKeysPresent(t *testing.T) {
	f := newFixture(t, completeEnv)

	require.NoError(t, f.wizard(false).Run(context.Background()))

	assert.Empty(t, f.asked, "no prompt when nothing is missing")
	assert.Equal(t, []string{"/usr/bin/python3 -m pip install -r " + f.cfg.RequirementsFile}, f.runner.Calls())
	assert.Equal(t, f.cfg.InstallRoot, f.runner.Cmds()[0].Dir)

	info, err := os.Stat(f.cfg.EntryScript)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestRun_OneMissingKeyDeclined(t *testing.T) {
	env := strings.Replace(completeEnv, "NEWS_API_AI=news\n", "", 1)
	f := newFixture(t, env)

	err := f.wizard(false).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrDeclined)
	assert.Equal(t, 1, apperr.ExitCode(err))

	out := f.out.String()
	assert.Contains(t, out, "NEWS_API_AI is missing")
	assert.Equal(t, 1, strings.Count(out, "is missing"), "only the missing key is reported")
	require.Len(t, f.asked, 1)
	assert.Equal(t, 1, f.runner.Count("/usr/bin/python3 -m pip"), "dependencies installed exactly once")
}

func TestRun_MissingKeysAccepted(t *testing.T) {
	f := newFixture(t, "DISCORD_BOT_TOKEN=token\n")

	require.NoError(t, f.wizard(true).Run(context.Background()))

	out := f.out.String()
	assert.Equal(t, 6, strings.Count(out, "is missing"))
	for _, k := range []string{"ROUTELLM_API_KEY", "ROUTELLM_ENDPOINT", "ROUTELLM_MODEL", "NEWS_API_AI", "CRYPTOCOMPARE_API_KEY", "DISCORD_CHANNEL_ID"} {
		assert.Contains(t, out, k+" is missing")
	}
}

func TestRun_DefaultConfirmDeclines(t *testing.T) {
	f := newFixture(t, "DISCORD_BOT_TOKEN=token\n")
	w := f.wizard(true)
	w.Confirm = nil

	require.ErrorIs(t, w.Run(context.Background()), apperr.ErrDeclined)
}

func TestRun_EmptyValueCountsAsMissing(t *testing.T) {
	env := strings.Replace(completeEnv, "DISCORD_CHANNEL_ID=12345", "DISCORD_CHANNEL_ID=", 1)
	f := newFixture(t, env)

	require.ErrorIs(t, f.wizard(false).Run(context.Background()), apperr.ErrDeclined)
	assert.Contains(t, f.out.String(), "DISCORD_CHANNEL_ID is missing")
}

func TestRun_MissingEnvFile(t *testing.T) {
	f := newFixture(t, "")

	err := f.wizard(true).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrConfigFile)
	assert.Empty(t, f.runner.Calls(), "nothing installed without a config file")

	example := filepath.Join(f.cfg.InstallRoot, ".env.example")
	data, readErr := os.ReadFile(example)
	require.NoError(t, readErr)
	assert.Equal(t, "DISCORD_BOT_TOKEN=\n", string(data))
	assert.Contains(t, apperr.RemedyOf(err), "cp "+example)
}

func TestRun_MissingInterpreter(t *testing.T) {
	f := newFixture(t, completeEnv)
	f.cfg.Interpreter = "python9"

	err := f.wizard(true).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrRuntimeMissing)
	assert.Empty(t, f.runner.Calls())
}

func TestRun_MissingEntryScript(t *testing.T) {
	f := newFixture(t, completeEnv)
	require.NoError(t, os.Remove(f.cfg.EntryScript))

	err := f.wizard(true).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrConfigFile)
	assert.Equal(t, 1, apperr.ExitCode(err))
	assert.Contains(t, err.Error(), f.cfg.EntryScript)
	assert.Empty(t, f.runner.Calls(), "no dependencies installed for a missing bot")
	assert.NotContains(t, f.out.String(), "Setup complete")
}

func TestRun_DependencyInstallFailure(t *testing.T) {
	f := newFixture(t, completeEnv)
	f.runner.On("/usr/bin/python3 -m pip install -r "+f.cfg.RequirementsFile, sysexectest.Response{
		Err: errors.New("exit status 1"),
	})

	err := f.wizard(true).Run(context.Background())
	require.ErrorIs(t, err, apperr.ErrDependencyInstall)
	assert.Empty(t, f.asked, "key validation never reached")
	assert.Contains(t, apperr.RemedyOf(err), "pip install")
}

func TestRun_AliasKeysSatisfyRouterSettings(t *testing.T) {
	env := strings.NewReplacer(
		"ROUTELLM_API_KEY", "OPENROUTER_API_KEY",
		"ROUTELLM_ENDPOINT", "OPENROUTER_BASE_URL",
		"ROUTELLM_MODEL", "OPENROUTER_MODEL",
	).Replace(completeEnv)
	f := newFixture(t, env)

	require.NoError(t, f.wizard(false).Run(context.Background()))
	assert.Empty(t, f.asked)
}

func TestMakeExecutable_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(path, nil, 0o640))

	require.NoError(t, makeExecutable(path))
	require.NoError(t, makeExecutable(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

func TestPrompt(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got := Prompt(strings.NewReader(tc.input), &out)("Continue anyway?")
		assert.Equal(t, tc.want, got, "input %q", tc.input)
		assert.Contains(t, out.String(), "Continue anyway? [y/N]")
	}
}
