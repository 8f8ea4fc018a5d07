// Copyright 2025 Rishta Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package server is the HTTP front door: profile insert and lookup,
// hybrid matching, dataset stats, and health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rishtahq/rishta/analyze"
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
	"github.com/rishtahq/rishta/vectorindex"
)

// Matcher runs a hybrid search.
type Matcher interface {
	Match(ctx context.Context, query string, filter storage.Filter, k int) (*core.MatchSet, error)
}

// ProfileSyncer embeds and indexes a single profile.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, profile *core.Profile) error
}

// Reporter computes dataset statistics.
type Reporter interface {
	Analyze(ctx context.Context, fields ...string) (*analyze.Report, error)
}

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Services are the collaborators the server exposes over HTTP.
type Services struct {
	Profiles storage.ProfileRepository
	Index    vectorindex.Index
	Matcher  Matcher
	Syncer   ProfileSyncer
	Reporter Reporter
}

// Server wraps a chi router and an HTTP server.
type Server struct {
	router chi.Router
	cfg    Config
	svc    Services
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With("component", "server")
	}
}

// New creates a Server with routes registered.
func New(cfg Config, svc Services, opts ...Option) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if svc.Profiles == nil || svc.Index == nil || svc.Matcher == nil || svc.Syncer == nil || svc.Reporter == nil {
		return nil, fmt.Errorf("all services are required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/profiles", s.handleInsertProfile)
	r.Get("/profiles/{id}", s.handleGetProfile)
	r.Get("/match", s.handleMatch)
	r.Get("/stats", s.handleStats)

	s.router = r
	return s, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return <-errCh
}
