package cli

import (
	"github.com/spf13/cobra"

	"newsctl/internal/runner"
)

func newRunCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot in the foreground, outside the service manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot := &runner.Bot{
				Config: a.cfg,
				Runner: a.runner,
				Stdin:  a.stdin,
				Stdout: a.stdout,
				Stderr: a.stderr,
			}
			if mode != "" {
				m, err := runner.ParseMode(mode)
				if err != nil {
					return err
				}
				return bot.Launch(cmd.Context(), m)
			}
			menu := &runner.Menu{In: a.stdin, Out: a.stdout, Launcher: bot}
			return menu.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "skip the menu: once or schedule")
	return cmd
}
