package sysexec

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOS_Output(t *testing.T) {
	requireShell(t)

	out, err := Output(context.Background(), OS{}, "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestOS_ExitErrorCarriesStderr(t *testing.T) {
	requireShell(t)

	_, err := Output(context.Background(), OS{}, "sh", "-c", "echo broken >&2; exit 3")
	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 3, ee.Code)
	assert.Equal(t, "broken", ee.Output)
	assert.Contains(t, ee.Error(), "exited with status 3")
}

func TestOS_CombinedOutput(t *testing.T) {
	requireShell(t)

	out, err := CombinedOutput(context.Background(), OS{}, "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Contains(t, string(out), "out")
	assert.Contains(t, string(out), "err")
}

func TestOS_MissingBinary(t *testing.T) {
	err := OS{}.Run(context.Background(), Cmd{Name: "newsctl-definitely-not-a-binary"})
	require.Error(t, err)
	var ee *ExitError
	assert.False(t, errors.As(err, &ee))
}

func TestCmd_String(t *testing.T) {
	c := Cmd{Name: "systemctl", Args: []string{"enable", "bot.service"}}
	assert.Equal(t, "systemctl enable bot.service", c.String())
}
