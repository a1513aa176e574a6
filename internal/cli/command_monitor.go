package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"newsctl/internal/api"
	"newsctl/internal/logger"
)

func newMonitorCmd(a *app) *cobra.Command {
	var (
		listen string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve the health report and log stream over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isLoopback(listen) {
				printExposureWarning(a.stderr)
			}

			sys, err := a.initSystem(a.cfg)
			if err != nil {
				return err
			}
			logger.Info("detected platform", "platform", sys.Name())

			addr := net.JoinHostPort(listen, strconv.Itoa(port))
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(a.cfg, sys),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1", "address to bind to")
	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "url", "http://"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func printExposureWarning(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                        ⚠️  WARNING ⚠️                            ║")
	fmt.Fprintln(w, "╠════════════════════════════════════════════════════════════════╣")
	fmt.Fprintln(w, "║  You are binding to a non-localhost address!                  ║")
	fmt.Fprintln(w, "║                                                               ║")
	fmt.Fprintln(w, "║  Anyone who can reach this address can:                       ║")
	fmt.Fprintln(w, "║    - See whether the bot is installed and running             ║")
	fmt.Fprintln(w, "║    - Read the bot's output and error logs                     ║")
	fmt.Fprintln(w, "║                                                               ║")
	fmt.Fprintln(w, "║  There is NO authentication. Use at your own risk.           ║")
	fmt.Fprintln(w, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w, "")
}
