// Package main is the entry point for the catalogctl command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/catalog-api/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
