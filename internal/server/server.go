// Package server exposes the fit-score engine, the profanity filter and the license verifier
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/catalog"
	"github.com/spigell/crna-fit/internal/filtering"
	"github.com/spigell/crna-fit/internal/fitscore"
	"github.com/spigell/crna-fit/internal/license"
	"github.com/spigell/crna-fit/internal/logger"
	"github.com/spigell/crna-fit/internal/profanity"
)

const (
	DefaultAddr    = ":8080"
	name           = "crna-fit"
	requestTimeout = 30 * time.Second
)

// StepsFunc builds the configured ranking pipeline for one profile.
type StepsFunc func(profile *fitscore.UserProfile) []filtering.Filter

type Deps struct {
	Schools   *catalog.Schools
	Profanity *profanity.Filter
	License   license.Verifier
	Steps     StepsFunc
	Logger    *zap.Logger
}

type Server struct {
	schools   *catalog.Schools
	profanity *profanity.Filter
	license   license.Verifier
	steps     StepsFunc
	logger    *zap.Logger

	// base is the parent of every request context; Serve replaces it.
	base    context.Context
	timeout time.Duration
}

func New(deps *Deps) *Server {
	s := &Server{
		schools:   deps.Schools,
		profanity: deps.Profanity,
		license:   deps.License,
		steps:     deps.Steps,
		logger:    logger.OrNop(deps.Logger),
		base:      context.Background(),
		timeout:   requestTimeout,
	}
	if s.schools == nil {
		s.schools = &catalog.Schools{}
	}
	if s.profanity == nil {
		s.profanity = profanity.New(nil, nil, s.logger)
	}
	if s.license == nil {
		s.license = license.NewMockVerifier(nil)
	}
	return s
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	s.base = ctx

	srv := &fasthttp.Server{
		Handler:      s.Handler,
		Name:         name,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler routes a single request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	route, ok := routes[path]
	switch {
	case !ok:
		writeError(ctx, fasthttp.StatusNotFound, fmt.Sprintf("no route for %s", path))
	case string(ctx.Method()) != route.method:
		ctx.Response.Header.Set(fasthttp.HeaderAllow, route.method)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
	default:
		route.handle(s, ctx)
	}

	s.logger.Debug("request handled",
		zap.String("method", string(ctx.Method())),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.timeout)
}
