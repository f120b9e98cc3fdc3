package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server represents the API server
type Server struct {
	hooksHandler *HooksHandler
	cache        HealthChecker
	gatherer     prometheus.Gatherer
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a new API server. cache may be nil.
func NewServer(port int, router EventRouter, cache HealthChecker, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	s := &Server{
		hooksHandler: NewHooksHandler(router, logger),
		cache:        cache,
		gatherer:     gatherer,
		logger:       logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.server.Handler = s.setupRoutes()
	return s
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop stops the API server gracefully and waits for accepted events.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	err := s.server.Shutdown(ctx)
	s.hooksHandler.Wait()
	return err
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/hooks/events", s.hooksHandler.PostEvent).Methods(http.MethodPost)

	router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			s.logger.Warn("Cache health check failed", zap.Error(err))
			response.Status = "unhealthy"
			writeJSONResponse(w, s.logger, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSONResponse(w, s.logger, http.StatusOK, response)
}
