package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/engine"
	"github.com/me/interviewd/internal/store"
)

// Server is the interviewd REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	engine    *engine.Engine
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, eng *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		engine:    eng,
	}
	s.routes()
	return s
}

// StartEngine begins the coordination loop in a background goroutine.
func (s *Server) StartEngine(ctx context.Context) {
	go func() {
		if err := s.engine.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("engine stopped", "error", err)
		}
	}()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Directory
		r.Post("/directory/snapshot", s.handleDirectorySnapshot)
		r.Get("/interviewers", s.handleListInterviewers)
		r.Get("/interviewers/{id}/capacity", s.handleGetCapacity)

		// Scheduling requests
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.handleListRequests)
			r.Post("/", s.handleCreateRequest)
			r.Get("/queue", s.handleQueue)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRequest)
				r.Put("/override", s.handleOverrideRequest)
				r.Delete("/", s.handleWithdrawRequest)
			})
		})

		// Inbound collaborator events
		r.Route("/events", func(r chi.Router) {
			r.Post("/slot-confirmed", s.handleSlotConfirmed)
			r.Post("/join", s.handleJoin)
			r.Post("/feedback", s.handleFeedback)
		})

		// Interviews
		r.Route("/interviews", func(r chi.Router) {
			r.Get("/", s.handleListInterviews)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetInterview)
				r.Post("/retry", s.handleRetryJoin)
				r.Post("/no-show", s.handleMarkNoShow)
			})
		})

		// Swap proposals
		r.Route("/swaps", func(r chi.Router) {
			r.Get("/pending", s.handlePendingSwaps)
			r.Post("/{id}/approve", s.handleApproveSwap)
			r.Post("/{id}/reject", s.handleRejectSwap)
		})

		// Operator error queue
		r.Route("/operator/errors", func(r chi.Router) {
			r.Get("/", s.handleListOperatorErrors)
			r.Post("/{id}/resolve", s.handleResolveOperatorError)
		})
	})
}
