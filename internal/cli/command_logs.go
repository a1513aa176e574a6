package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsctl/internal/logtail"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		lines  int
		stderr bool
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the bot's output log (or error log with --stderr)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.OutputLog()
			if stderr {
				path = a.cfg.ErrorLog()
			}

			// Start watching before printing the tail so no line falls
			// between the two.
			var stream <-chan string
			if follow {
				var err error
				if stream, err = logtail.Follow(cmd.Context(), path); err != nil {
					return err
				}
			}

			tail, err := logtail.Tail(path, lines)
			switch {
			case errors.Is(err, os.ErrNotExist):
				fmt.Fprintf(a.stderr, "%s does not exist yet\n", path)
			case err != nil:
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			for _, l := range tail {
				fmt.Fprintln(a.stdout, l)
			}

			if stream == nil {
				return nil
			}
			for l := range stream {
				fmt.Fprintln(a.stdout, l)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	cmd.Flags().BoolVar(&stderr, "stderr", false, "show the error log instead of the output log")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing appended lines until interrupted")
	return cmd
}
