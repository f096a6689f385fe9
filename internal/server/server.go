package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"marketpulse/internal/config"
	"marketpulse/internal/core"
	"marketpulse/internal/logger"
	"marketpulse/internal/pipeline"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Analyzer runs the batch pipeline over a set of links
type Analyzer interface {
	ProcessReport(ctx context.Context, links []core.ArticleLink) (*pipeline.Report, error)
}

// LinkDiscoverer finds candidate article links for a company
type LinkDiscoverer interface {
	DiscoverLinks(ctx context.Context, company string) []core.ArticleLink
}

// CacheInspector reports on the result cache. Optional.
type CacheInspector interface {
	Stats(ctx context.Context) (*core.CacheStats, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	analyzer   Analyzer
	discoverer LinkDiscoverer
	cache      CacheInspector
	config     config.Server
	log        *slog.Logger
}

// New creates a new HTTP server instance. cache may be nil.
func New(analyzer Analyzer, discoverer LinkDiscoverer, cache CacheInspector, cfg config.Server) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		analyzer:   analyzer,
		discoverer: discoverer,
		cache:      cache,
		config:     cfg,
		log:        logger.Get(),
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.ParseDuration(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: config.ParseDuration(cfg.WriteTimeout, 5*time.Minute),
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	// Request ID middleware
	s.router.Use(middleware.RequestID)

	// Real IP middleware
	s.router.Use(middleware.RealIP)

	// Logging middleware
	s.router.Use(s.requestLogger)

	// Recovery middleware (recover from panics)
	s.router.Use(middleware.Recoverer)

	s.router.Use(securityHeaders)

	// CORS middleware
	if s.config.CORS.Enabled {
		origins := s.config.CORS.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	// Dispatched analysis tasks always run to completion, so /analyze is
	// bounded only by the server write timeout.
	s.router.Post("/analyze", s.handleAnalyze)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(config.ParseDuration(s.config.RequestTimeout, 5*time.Minute)))

		r.Get("/", s.handleRoot)

		// Health check endpoint
		r.Get("/health", s.handleHealth)

		r.Get("/get-news", s.handleGetNews)
		r.Get("/static/*", s.staticHandler())
	})
}

// staticHandler serves generated audio
func (s *Server) staticHandler() http.HandlerFunc {
	staticDir := s.config.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	if _, err := os.Stat(staticDir); err != nil {
		if err := os.MkdirAll(staticDir, 0o755); err != nil {
			s.log.Warn("Static directory unavailable", "dir", staticDir, "error", err)
		}
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	return cacheStaticAssets(fileServer).ServeHTTP
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
