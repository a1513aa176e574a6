package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"newsctl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCmd(GetDeployFS()))
	stop()
	os.Exit(code)
}
