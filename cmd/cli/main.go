package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/latentflow/internal/app"
	"github.com/vk/latentflow/internal/cli"
)

// main is the entrypoint for the latentflow CLI.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and
// error handling.
func run(args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, os.Stdout)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Ctrl-C cancels the context, which cancels the job in flight.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.NewApp(os.Stdout, appConfig).Run(ctx)
}
