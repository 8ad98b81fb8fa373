// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes conversions over HTTP.
//
// Routes:
//
//	POST /api/convert                 multipart upload; returns the artifact
//	GET  /api/download/{id}/{name}    fetch an artifact by job id
//	GET  /api/check/{tool}            converter availability
//	GET  /api/formats                 format registry
//	GET  /api/health                  liveness
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/toolchain"
	"github.com/pdiddy/docconv/internal/workspace"
	"github.com/pdiddy/docconv/pkg/types"
)

// Server serves the conversion API.
type Server struct {
	cfg       types.ServerConfig
	workspace *workspace.Workspace
	convert   *convert.Service
	logger    *zap.Logger

	// probe reports on a converter by probe name; ok is false for names
	// that are not probes.
	probe func(ctx context.Context, name string) (st toolchain.Status, ok bool)
}

// New returns a Server. tools configures the availability probes.
func New(cfg types.ServerConfig, tools types.ToolsConfig, ws *workspace.Workspace, svc *convert.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		workspace: ws,
		convert:   svc,
		logger:    logger,
		probe: func(ctx context.Context, name string) (toolchain.Status, bool) {
			t, ok := toolchain.Lookup(tools, name)
			if !ok {
				return toolchain.Status{}, false
			}
			return toolchain.Check(ctx, t), true
		},
	}
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         86400,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.RateLimitPerMinute > 0 {
				r.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))
			}
			r.Post("/convert", s.handleConvert)
		})
		r.Get("/download/{id}/{name}", s.handleDownload)
		r.Get("/check/{tool}", s.handleCheck)
		r.Get("/check-pandoc", s.checkAlias(toolchain.NamePandoc))
		r.Get("/check-imagemagick", s.checkAlias(toolchain.NameImageMagick))
		r.Get("/formats", s.handleFormats)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
