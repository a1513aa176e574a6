// Package setup prepares a fresh checkout of the bot for its first run.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/logger"
	"newsctl/internal/sysexec"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ConfirmFunc asks the operator a yes/no question. Anything other than an
// explicit yes must return false.
type ConfirmFunc func(question string) bool

// Decline is the ConfirmFunc used when none is given.
func Decline(string) bool { return false }

// Wizard validates the bot's environment and installs its dependencies.
type Wizard struct {
	Config  config.Config
	Runner  sysexec.Runner
	Confirm ConfirmFunc
	Out     io.Writer

	// EnvExample is written next to a missing env file as a starting point.
	EnvExample []byte

	// LookPath finds the interpreter; exec.LookPath when nil.
	LookPath func(file string) (string, error)
}

// Run performs the setup steps in order. It stops at the first fatal
// problem; missing configuration keys are only fatal if the operator
// declines to continue.
func (w *Wizard) Run(ctx context.Context) error {
	cfg := w.Config

	fmt.Fprintln(w.Out, headingStyle.Render("Newscaster bot setup"))

	if _, err := os.Stat(cfg.EnvFile); err != nil {
		hint := w.writeExample()
		return apperr.Wrap(apperr.ErrConfigFile, err,
			fmt.Sprintf("configuration file %s not found", cfg.EnvFile),
			hint)
	}
	fmt.Fprintf(w.Out, "%s configuration file %s\n", okStyle.Render("[OK]"), cfg.EnvFile)

	interpreter, err := w.lookPath(cfg.Interpreter)
	if err != nil {
		return apperr.Wrap(apperr.ErrRuntimeMissing, err,
			fmt.Sprintf("interpreter %s not found", cfg.Interpreter),
			"install Python 3 (e.g. sudo apt install python3 python3-pip) or set interpreter in the newsctl config")
	}
	fmt.Fprintf(w.Out, "%s interpreter %s\n", okStyle.Render("[OK]"), interpreter)

	if _, err := os.Stat(cfg.EntryScript); err != nil {
		return apperr.Wrap(apperr.ErrConfigFile, err,
			fmt.Sprintf("entry script %s not found", cfg.EntryScript),
			"set install_root or entry_script in the newsctl config to the bot checkout")
	}

	if err := w.installDependencies(ctx, interpreter); err != nil {
		return err
	}

	if err := w.checkKeys(); err != nil {
		return err
	}

	if err := makeExecutable(cfg.EntryScript); err != nil {
		return apperr.Wrap(apperr.ErrStepFailed, err,
			fmt.Sprintf("could not mark %s executable", cfg.EntryScript),
			"chmod +x "+cfg.EntryScript)
	}
	fmt.Fprintf(w.Out, "%s %s is executable\n", okStyle.Render("[OK]"), cfg.EntryScript)

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Setup complete. Next steps:")
	fmt.Fprintln(w.Out, "  newsctl run              try the bot in the foreground")
	fmt.Fprintln(w.Out, "  sudo newsctl install     install it as a service")
	return nil
}

func (w *Wizard) lookPath(file string) (string, error) {
	if w.LookPath != nil {
		return w.LookPath(file)
	}
	return exec.LookPath(file)
}

func (w *Wizard) installDependencies(ctx context.Context, interpreter string) error {
	req := w.Config.RequirementsFile
	fmt.Fprintf(w.Out, "Installing dependencies from %s\n", req)

	err := w.Runner.Run(ctx, sysexec.Cmd{
		Name:   interpreter,
		Args:   []string{"-m", "pip", "install", "-r", req},
		Dir:    w.Config.InstallRoot,
		Stdout: w.Out,
		Stderr: w.Out,
	})
	if err != nil {
		return apperr.Wrap(apperr.ErrDependencyInstall, err,
			"failed to install dependencies",
			fmt.Sprintf("%s -m pip install -r %s", interpreter, req))
	}
	fmt.Fprintf(w.Out, "%s dependencies installed\n", okStyle.Render("[OK]"))
	return nil
}

// checkKeys reports every missing key on its own line, then asks whether to
// continue when any are missing.
func (w *Wizard) checkKeys() error {
	values, err := config.ReadEnvFile(w.Config.EnvFile)
	if err != nil {
		return apperr.Wrap(apperr.ErrConfigFile, err,
			fmt.Sprintf("failed to parse %s", w.Config.EnvFile),
			"check the file for unbalanced quotes")
	}

	missing := config.MissingKeys(values, config.RequiredKeys)
	missingSet := make(map[string]bool, len(missing))
	for _, k := range missing {
		missingSet[k.Name] = true
	}

	fmt.Fprintln(w.Out, headingStyle.Render("Required configuration"))
	for _, k := range config.RequiredKeys {
		if missingSet[k.Name] {
			fmt.Fprintf(w.Out, "%s %s is missing (%s)\n", missingStyle.Render("[MISSING]"), k.Name, k.Purpose)
			continue
		}
		fmt.Fprintf(w.Out, "%s %s\n", okStyle.Render("[OK]"), k.Name)
	}

	if len(missing) == 0 {
		return nil
	}

	confirm := w.Confirm
	if confirm == nil {
		confirm = Decline
	}
	question := fmt.Sprintf("%d required key(s) missing. The bot will not work correctly. Continue anyway?", len(missing))
	if confirm(question) {
		logger.Warn("continuing with missing configuration", "missing", len(missing))
		return nil
	}
	return apperr.New(apperr.ErrDeclined,
		fmt.Sprintf("setup aborted: %d required key(s) missing from %s", len(missing), w.Config.EnvFile),
		fmt.Sprintf("edit %s and re-run: newsctl setup", w.Config.EnvFile))
}

// writeExample drops the example env file next to the missing one and
// returns the remediation to show.
func (w *Wizard) writeExample() string {
	envFile := w.Config.EnvFile
	if len(w.EnvExample) == 0 {
		return fmt.Sprintf("create %s with the required keys", envFile)
	}
	example := filepath.Join(filepath.Dir(envFile), ".env.example")
	if _, err := os.Stat(example); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(example, w.EnvExample, 0o644); err != nil {
			logger.Debug("could not write env example", "path", example, "error", err)
			return fmt.Sprintf("create %s with the required keys", envFile)
		}
	}
	return fmt.Sprintf("cp %s %s and fill in every value", example, envFile)
}

// makeExecutable adds execute bits wherever read bits are set.
func makeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	want := mode | (mode&0o444)>>2
	if want == mode {
		return nil
	}
	return os.Chmod(path, want)
}
