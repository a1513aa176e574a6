// Package cli is the newsctl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"newsctl/internal/apperr"
	"newsctl/internal/config"
	"newsctl/internal/lifecycle"
	"newsctl/internal/logger"
	"newsctl/internal/platform"
	"newsctl/internal/sysexec"
)

const (
	unitTemplateFile = "newscaster-bot.service.tmpl"
	envExampleFile   = "env.example"
)

// app carries the dependencies shared by every command. Tests replace the
// seams; NewRootCmd fills in the real ones.
type app struct {
	configPath string
	verbose    bool
	cfg        config.Config

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	assets     fs.FS
	runner     sysexec.Runner
	initSystem func(cfg config.Config) (platform.InitSystem, error)
	lookPath   func(file string) (string, error)
	lcOpts     []lifecycle.Option
}

func newApp(assets fs.FS) *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		assets: assets,
		runner: sysexec.OS{},
		initSystem: func(cfg config.Config) (platform.InitSystem, error) {
			return platform.Detect(cfg.UnitDir)
		},
	}
}

// NewRootCmd builds the command tree. assets holds the unit template and
// the example env file.
func NewRootCmd(assets fs.FS) *cobra.Command {
	return newRootCmd(newApp(assets))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "newsctl",
		Short:         "Install, run and check the Newscaster bot service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(a.verbose, a.stderr)
			cfg, err := config.Load(a.configPath, a.getenv)
			if err != nil {
				return apperr.Wrap(apperr.ErrConfigFile, err, "invalid newsctl configuration",
					"check "+configHint(a.configPath)+" and the NEWSCTL_* environment variables")
			}
			a.cfg = cfg
			logger.Debug("configuration loaded", "service", cfg.ServiceName, "root", cfg.InstallRoot)
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the newsctl config file (default $NEWSCTL_CONFIG or "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newSetupCmd(a))
	root.AddCommand(newInstallCmd(a))
	root.AddCommand(newUninstallCmd(a))
	root.AddCommand(newStartCmd(a))
	root.AddCommand(newStopCmd(a))
	root.AddCommand(newRestartCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newLogsCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newMonitorCmd(a))

	return root
}

func configHint(path string) string {
	if path != "" {
		return path
	}
	return config.DefaultPath
}

func (a *app) manager() (*lifecycle.Manager, error) {
	sys, err := a.initSystem(a.cfg)
	if err != nil {
		return nil, err
	}
	tmpl, err := fs.ReadFile(a.assets, unitTemplateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit template: %w", err)
	}
	return lifecycle.New(a.cfg, sys, tmpl, a.stdout, a.lcOpts...), nil
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	fixStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Execute runs root and returns the process exit code. Failures that were
// not already reported are printed with their remediation.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	if !apperr.IsSilent(err) {
		PrintError(root.ErrOrStderr(), err)
	}
	return apperr.ExitCode(err)
}

// PrintError writes err and, when known, how to fix it.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("error:"), err)
	if remedy := apperr.RemedyOf(err); remedy != "" {
		fmt.Fprintf(w, "  %s %s\n", fixStyle.Render("fix:"), remedy)
	}
}
