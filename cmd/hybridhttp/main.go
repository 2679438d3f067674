// Command hybridhttp serves the Http plugin bridge.
// Usage: go run ./cmd/hybridhttp [-backend nethttp|chromedp] [-cookie-store memory|sqlite|browser] [-listen addr]
// Configuration is read from HYBRIDHTTP_* variables and .env files first;
// flags given on the command line win.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/hybridhttp/internal/app"
	"github.com/raysh454/hybridhttp/internal/cli"
	"github.com/raysh454/hybridhttp/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hybridhttp:", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	args, err := cli.ParseArgs(argv)
	if err != nil {
		return err
	}

	cfg, err := app.LoadConfig(args.EnvDir)
	if err != nil {
		return err
	}
	cfg.ApplyArgs(args)

	logger := logging.NewStdoutLogger("hybridhttp").WithLevel(logging.ParseLevel(cfg.LogLevel))

	a, err := app.NewApplication(cfg, args, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.Start(); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}
	waitErr := a.Wait(ctx)
	if err := a.Shutdown(context.Background()); err != nil && waitErr == nil {
		waitErr = err
	}
	return waitErr
}
