// Package server exposes the engine over HTTP for the trainer: game
// creation, step execution, introspection and teardown, plus health and
// metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/impostorlabs/arena/pkg/config"
	"github.com/impostorlabs/arena/pkg/engine"
	"github.com/impostorlabs/arena/pkg/llms"
	"github.com/impostorlabs/arena/pkg/logger"
)

type Server struct {
	cfg    *config.Config
	engine *engine.EngineAPI
	llms   *llms.LLMRegistry
	http   *http.Server
	logger *slog.Logger
}

func New(cfg *config.Config, engineAPI *engine.EngineAPI, llmRegistry *llms.LLMRegistry) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engineAPI,
		llms:   llmRegistry,
		logger: logger.GetLogger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/games", func(r chi.Router) {
		r.Post("/", s.handleCreateGame)
		r.Get("/", s.handleListGames)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Post("/steps", s.handleStep)
			r.Delete("/", s.handleDeleteGame)
		})
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.engine.Shutdown()
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
