package cli

import (
	"context"

	"github.com/spf13/cobra"

	"newsctl/internal/lifecycle"
)

// serviceCmd builds one of the commands that drive the lifecycle manager.
func serviceCmd(a *app, use, short string, action func(*lifecycle.Manager, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			return action(m, cmd.Context())
		},
	}
}

func newInstallCmd(a *app) *cobra.Command {
	return serviceCmd(a, "install", "Register and enable the bot as a system service (does not start it)", (*lifecycle.Manager).Install)
}

func newUninstallCmd(a *app) *cobra.Command {
	return serviceCmd(a, "uninstall", "Stop, disable and remove the service; logs are kept", (*lifecycle.Manager).Uninstall)
}

func newStartCmd(a *app) *cobra.Command {
	return serviceCmd(a, "start", "Start the installed service", (*lifecycle.Manager).Start)
}

func newStopCmd(a *app) *cobra.Command {
	return serviceCmd(a, "stop", "Stop the service", (*lifecycle.Manager).Stop)
}

func newRestartCmd(a *app) *cobra.Command {
	return serviceCmd(a, "restart", "Restart the service", (*lifecycle.Manager).Restart)
}
