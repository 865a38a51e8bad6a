// Package main provides the entry point for the parasplit parallel-text splitter.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parallelsplit/cmd/parasplit/commands"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Interrupts cancel the run between lines
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := commands.NewApp(nil)
	code := commands.Run(ctx, app, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := app.Close(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "parasplit: failed to flush telemetry: %v\n", err)
	}
	cancel()

	os.Exit(code)
}
