// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-authgate/internal/config"
	"github.com/jeremyhahn/go-authgate/internal/rest"
	"github.com/jeremyhahn/go-authgate/pkg/gate"
	"github.com/jeremyhahn/go-authgate/pkg/logging"
	"github.com/jeremyhahn/go-authgate/pkg/metrics"
	"github.com/jeremyhahn/go-authgate/pkg/storage/file"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "/etc/authgate/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("go-authgate server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	if envConfig := os.Getenv("AUTHGATE_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging.Debug)
	logger.Infof("Starting authentication gateway (version %s)", version)

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	secret, err := cfg.ReadSessionSecret()
	if err != nil {
		logger.FatalError(err)
	}

	backend, err := file.New(cfg.Gate.DataDir)
	if err != nil {
		logger.FatalError(err)
	}
	defer backend.Close()

	registry := gate.NewRegistry(backend)
	if err := registry.Load(context.Background()); err != nil {
		logger.FatalError(err)
	}
	logger.Infof("Loaded %d credential(s) from %s", registry.Count(), cfg.Gate.DataDir)

	sessions, err := gate.NewSessionService(secret, cfg.Gate.SessionTTL)
	if err != nil {
		logger.FatalError(err)
	}

	svc, err := gate.NewService(gate.ServiceParams{
		Config:   cfg.ToGateConfig(),
		Registry: registry,
		Sessions: sessions,
	})
	if err != nil {
		logger.FatalError(err)
	}

	srv := rest.NewServer(cfg, svc, logger.Slog())

	shutdownCtx := setupSignalHandler(logger.Slog())

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		logger.Errorf("server error: %v", err)
	}

	shutdownTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownTimeout); err != nil {
		logger.Errorf("error during server shutdown: %v", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler(logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	return ctx
}
