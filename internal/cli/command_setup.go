package cli

import (
	"io/fs"

	"github.com/spf13/cobra"

	"newsctl/internal/logger"
	"newsctl/internal/setup"
)

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Check the bot's configuration and install its dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			example, err := fs.ReadFile(a.assets, envExampleFile)
			if err != nil {
				logger.Debug("no env example available", "error", err)
			}
			w := &setup.Wizard{
				Config:     a.cfg,
				Runner:     a.runner,
				Confirm:    setup.Prompt(a.stdin, a.stdout),
				Out:        a.stdout,
				EnvExample: example,
				LookPath:   a.lookPath,
			}
			return w.Run(cmd.Context())
		},
	}
}
