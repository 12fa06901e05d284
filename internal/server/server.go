// Package server provides the HTTP server and routing for the platform.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/config"
	"github.com/woodid012/renew-asset-platform-sub004/internal/database"
	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio"
	portfoliohandlers "github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio/handlers"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing"
	pricinghandlers "github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing/handlers"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/projections"
	projectionshandlers "github.com/woodid012/renew-asset-platform-sub004/internal/modules/projections/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Config      *config.Config
	PortfolioDB *database.DB
	PricesDB    *database.DB
	CacheDB     *database.DB

	PortfolioService   *portfolio.Service
	PricingRepo        *pricing.Repository
	ProjectionsService *projections.Service
	Hub                *events.Hub
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	systemHandlers := NewSystemHandlers(
		s.cfg.Config.DataDir,
		[]*database.DB{s.cfg.PortfolioDB, s.cfg.PricesDB, s.cfg.CacheDB},
		s.cfg.Log,
	)

	s.router.Get("/health", systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Live event stream (websocket)
		eventsStream := NewEventsStreamHandler(s.cfg.Hub, s.cfg.Log)
		r.Get("/events/stream", eventsStream.ServeHTTP)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", systemHandlers.HandleDatabaseStats)
			r.Get("/disk", systemHandlers.HandleDiskUsage)
		})

		portfoliohandlers.NewHandler(s.cfg.PortfolioService, s.cfg.Log).RegisterRoutes(r)
		pricinghandlers.NewHandler(s.cfg.PricingRepo, s.cfg.Hub, s.cfg.Log).RegisterRoutes(r)
		projectionshandlers.NewHandler(s.cfg.ProjectionsService, s.cfg.Log).RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Config.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
