package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/raysh454/hybridhttp/internal/bridge"
	"github.com/raysh454/hybridhttp/internal/cli"
	"github.com/raysh454/hybridhttp/internal/logging"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the services shared across modules
// (plugin components, bridge, logger). Pass Application into modules that
// need access to the global state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger     logging.Logger
	Components *PluginComponents
	Bridge     *bridge.Server

	httpServer *http.Server
	serveErr   chan error
}

// NewApplication wires the plugin components and the bridge server.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	pc, err := NewPluginComponents(cfg, logger)
	if err != nil {
		return nil, err
	}

	srv, err := bridge.NewServer(bridge.Config{ListenAddr: cfg.ListenAddr, Logger: logger}, pc.Plugin)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("new bridge server: %w", err)
	}

	return &Application{
		Config:     cfg,
		Args:       args,
		Logger:     logger,
		Components: pc,
		Bridge:     srv,
	}, nil
}

// Start binds the listen address and serves the bridge in the background.
// It returns the bound address, which differs from the configured one when
// the port is 0.
func (a *Application) Start() (string, error) {
	if a == nil {
		return "", errors.New("application is nil")
	}
	if a.httpServer != nil {
		return "", errors.New("application already started")
	}

	ln, err := net.Listen("tcp", a.Config.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", a.Config.ListenAddr, err)
	}

	a.httpServer = a.Bridge.HTTPServer()
	a.httpServer.IdleTimeout = a.Config.IdleTimeout
	a.serveErr = make(chan error, 1)

	go func() {
		err := a.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveErr <- err
	}()

	addr := ln.Addr().String()
	a.Logger.Info("bridge listening", logging.Field{Key: "addr", Value: addr})
	return addr, nil
}

// Wait blocks until the server stops or ctx is done.
func (a *Application) Wait(ctx context.Context) error {
	if a == nil || a.serveErr == nil {
		return errors.New("application not started")
	}
	select {
	case err := <-a.serveErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown stops the bridge gracefully, then releases the plugin components.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	// bound the wait for in-flight plugin calls
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var firstErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("bridge shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
			firstErr = err
		}
	}
	if err := a.Components.Close(); err != nil {
		a.Logger.Warn("closing plugin components", logging.Field{Key: "error", Value: err.Error()})
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
