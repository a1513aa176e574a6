package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"newsctl/internal/apperr"
	"newsctl/internal/health"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"health"},
		Short:   "Report whether the service is installed and running (exit 1 if not)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := a.initSystem(a.cfg)
			if err != nil {
				return err
			}
			report, err := health.NewChecker(a.cfg, sys).Check(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				health.Render(a.stdout, report)
			}

			if err := report.Err(); err != nil {
				// The report already explains the problem.
				return apperr.Quiet(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
