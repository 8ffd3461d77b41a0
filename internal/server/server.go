// Package server exposes the game service over HTTP: a JSON API, SSE and
// WebSocket party feeds and the OpenAPI document.
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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/playperu/speedgame/internal/game"
)

type Server struct {
	srv         *http.Server
	logger      *slog.Logger
	unsubscribe func()
}

// New builds the HTTP server. mount, when not nil, adds routes owned by the
// caller such as health checks and metrics.
func New(addr string, logger *slog.Logger, svc *game.Service, limiter *IPRateLimiter, mount func(chi.Router)) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	broker := NewBroker(logger)
	unsubscribe := svc.Subscribe(broker.Handle)

	addRoutes(r, logger, svc, broker, limiter)
	if mount != nil {
		mount(r)
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(r, "speedgame.http"),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:      logger,
		unsubscribe: unsubscribe,
	}
}

// Handler returns the root handler. Used by tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
