// Package main is the mcpkit server entry point: it wires the lifecycle
// manager, registries, middleware engine, and dispatcher together behind a
// stdio transport and runs until a signal or the transport orchestrator
// reports a failure (spec.md §4.8, generalizing the teacher's
// cmd/server/server_runner.go RunServer).
// file: cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dkoosis/mcpkit/internal/config"
	"github.com/dkoosis/mcpkit/internal/dispatch"
	"github.com/dkoosis/mcpkit/internal/handshake"
	"github.com/dkoosis/mcpkit/internal/lifecycle"
	"github.com/dkoosis/mcpkit/internal/logging"
	"github.com/dkoosis/mcpkit/internal/middleware"
	"github.com/dkoosis/mcpkit/internal/registry"
	"github.com/dkoosis/mcpkit/internal/secrets"
	"github.com/dkoosis/mcpkit/internal/transport"
)

func main() {
	if home, err := os.UserHomeDir(); err == nil {
		_ = config.WriteDefault(filepath.Join(home, ".config", "mcpkit", "mcpkit.yaml"))
	}

	settings := config.Load()
	settings.ConfigureLogging()
	logger := logging.GetLogger("server")

	if err := run(settings, logger); err != nil {
		logger.Error("server exited with error", "error", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

func run(settings *config.Settings, logger logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	mgr, err := lifecycle.NewManager(logger)
	if err != nil {
		return err
	}
	mgr.Subscribe(func(n lifecycle.Notification) {
		logger.Info("lifecycle transition", "kind", n.Kind, "from", n.From, "to", n.To)
	})

	registries := registry.NewSet(logger)
	handlers := &handshake.Handlers{Manager: mgr, Registries: registries, Settings: settings}

	engine := middleware.New(logger)
	if secret := bearerSecret(logger); secret != "" {
		engine.Use(middleware.BearerAuth(secret))
	}
	engine.Use(middleware.RateLimit(
		middleware.NewLocalRateLimiter(50, 100),
		func(rc *middleware.RequestContext) string { return rc.Method },
	))

	disp := dispatch.New(mgr, registries, handlers, engine, settings, logger)

	var orch *transport.Orchestrator
	if !settings.NoDefaultTransport {
		stdio := transport.NewStdioTransport(os.Stdin, os.Stdout, logger)
		orch = transport.NewOrchestrator(logger, stdio)

		runErrCh := make(chan *transport.TransportOrchestrationError, 1)
		go func() { runErrCh <- orch.Run(ctx, disp.Dispatch) }()

		var runErr *transport.TransportOrchestrationError
		select {
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig.String())
		case runErr = <-runErrCh:
			if runErr != nil {
				logger.Error("transport orchestration failed", "error", runErr.Error())
			}
		}

		cancel()
		if err := mgr.Shutdown(context.Background()); err != nil {
			logger.Error("lifecycle shutdown failed", "error", err)
		}
		if err := orch.Stop(); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		return nil
	}

	<-sigCh
	cancel()
	if err := mgr.Shutdown(context.Background()); err != nil {
		logger.Error("lifecycle shutdown failed", "error", err)
	}
	return nil
}

// bearerSecret resolves the Bearer-token verification secret: the OS
// keychain first, falling back to MCPKIT_BEARER_SECRET when no keyring
// entry exists yet (e.g. first run). An env-sourced secret is persisted to
// the keychain so later runs read it back without the variable set.
func bearerSecret(logger logging.Logger) string {
	store := secrets.NewStore(logger)
	secret, err := store.Load()
	if err != nil {
		logger.Error("failed to load bearer secret from keyring", "error", err)
	}
	if secret != "" {
		return secret
	}

	secret = os.Getenv("MCPKIT_BEARER_SECRET")
	if secret == "" {
		return ""
	}
	if err := store.Save(secret); err != nil {
		logger.Error("failed to persist bearer secret to keyring", "error", err)
	}
	return secret
}
