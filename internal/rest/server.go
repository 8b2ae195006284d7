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

package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-authgate/internal/config"
	"github.com/jeremyhahn/go-authgate/pkg/gate"
	"github.com/jeremyhahn/go-authgate/pkg/metrics"
)

// Server is the HTTP server for the authentication gateway.
type Server struct {
	cfg     *config.Config
	handler *Handler
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer creates a new REST server.
func NewServer(cfg *config.Config, svc *gate.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		handler: NewHandler(svc, logger),
		logger:  logger,
	}
	s.httpSrv = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.setupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))
	if s.cfg.Metrics.Enabled {
		r.Use(metrics.HTTPMiddleware)
	}

	r.Get("/health", s.handler.Health)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/validate", s.handler.Validate)
		r.Get("/authenticate", s.handler.AuthenticateStart)
		r.Post("/authenticate", s.handler.AuthenticateFinish)

		r.Group(func(r chi.Router) {
			r.Use(s.handler.RequireSession)
			r.Get("/register", s.handler.RegisterStart)
			r.Post("/register", s.handler.RegisterFinish)
			r.Get("/credentials", s.handler.ListCredentials)
			r.Delete("/credentials/{name}", s.handler.DeleteCredential)
		})
	})

	return r
}

// Start begins listening for requests. It blocks until the server is
// shut down.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// to complete.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// Handler returns the underlying http.Handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
