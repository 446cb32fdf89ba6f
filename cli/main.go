package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trebuchet-org/portal-deployer/internal/cli"
	"github.com/trebuchet-org/portal-deployer/internal/cli/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", render.FormatError(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
