// Package unit renders the systemd unit that supervises the bot.
package unit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"newsctl/internal/config"
)

// ScheduleArgs are appended to the entry script in the installed unit.
var ScheduleArgs = []string{"--mode", "schedule"}

// Definition holds the values substituted into the unit template.
type Definition struct {
	Description       string
	User              string
	WorkingDirectory  string
	ExecStart         string
	Environment       []string
	RestartSec        int // seconds
	StandardOutPath   string
	StandardErrorPath string
}

// FromConfig builds the definition for the scheduled bot service.
func FromConfig(cfg config.Config) Definition {
	args := append([]string{cfg.Interpreter, cfg.EntryScript}, ScheduleArgs...)
	return Definition{
		Description:      "Newscaster Bot - news digests for Discord",
		User:             cfg.RunAsUser,
		WorkingDirectory: cfg.InstallRoot,
		ExecStart:        joinArgs(args),
		// Python buffers stdout when it is not a terminal; the append
		// logs would otherwise lag behind the bot.
		Environment:       []string{"PYTHONUNBUFFERED=1"},
		RestartSec:        int(cfg.RestartSec.Duration / time.Second),
		StandardOutPath:   cfg.OutputLog(),
		StandardErrorPath: cfg.ErrorLog(),
	}
}

// Validate reports fields that would produce a broken unit.
func (d Definition) Validate() error {
	var errs []error
	if d.User == "" {
		errs = append(errs, errors.New("run-as user is not set"))
	}
	if d.ExecStart == "" {
		errs = append(errs, errors.New("start command is empty"))
	}
	if d.WorkingDirectory == "" {
		errs = append(errs, errors.New("working directory is empty"))
	}
	for _, v := range []string{d.Description, d.User, d.WorkingDirectory, d.ExecStart, d.StandardOutPath, d.StandardErrorPath} {
		if strings.ContainsAny(v, "\n\r") {
			errs = append(errs, fmt.Errorf("value %q contains a line break", v))
		}
	}
	return errors.Join(errs...)
}

// Render executes the unit template with d.
func Render(tmpl []byte, d Definition) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid unit definition: %w", err)
	}
	t, err := template.New("unit").Option("missingkey=error").Parse(string(tmpl))
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, d.escaped()); err != nil {
		return nil, fmt.Errorf("failed to render unit template: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	specifiers = strings.NewReplacer("%", "%%")
	// ExecStart also expands $VAR and ${VAR}.
	commandLine = strings.NewReplacer("%", "%%", "$", "$$")
)

// escaped returns d with systemd specifiers (and, in ExecStart, variable
// references) doubled so values reach the process literally.
func (d Definition) escaped() Definition {
	d.Description = specifiers.Replace(d.Description)
	d.User = specifiers.Replace(d.User)
	d.WorkingDirectory = specifiers.Replace(d.WorkingDirectory)
	d.StandardOutPath = specifiers.Replace(d.StandardOutPath)
	d.StandardErrorPath = specifiers.Replace(d.StandardErrorPath)
	d.ExecStart = commandLine.Replace(d.ExecStart)
	env := make([]string, len(d.Environment))
	for i, e := range d.Environment {
		env[i] = specifiers.Replace(e)
	}
	d.Environment = env
	return d
}

// joinArgs quotes arguments containing whitespace the way systemd expects.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
