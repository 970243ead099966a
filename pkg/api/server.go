// Package api serves listener statistics over HTTP.
//
// Routes:
//
//	GET /health              liveness and uptime
//	GET /stats               counters since start
//	GET /stats/events/{name} decoded count for one event name
//	GET /metrics             Prometheus exposition
package api

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
	"go.uber.org/zap"
)

// Router builds the HTTP handler with all routes configured
func (s *Server) Router(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.metrics == nil {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/events/{name}", s.handleEventStats)
		return r
	}

	// Prometheus metrics endpoint
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/health", s.metrics.InstrumentHandler("GET", "/health", s.handleHealth))
	r.Get("/stats", s.metrics.InstrumentHandler("GET", "/stats", s.handleStats))
	r.Get("/stats/events/{name}", s.metrics.InstrumentHandler("GET", "/stats/events/{name}", s.handleEventStats))

	return r
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, fmt.Sprint(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled. It returns nil on a
// clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener, logger)
}

// Serve serves on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener, logger *zap.Logger) error {
	server := &http.Server{
		Handler:           s.Router(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("stats server listening", zap.String("addr", listener.Addr().String()))
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
