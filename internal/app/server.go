package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/rfpsearch/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/rfpsearch/internal/api/middlewares"
	"github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/core/search"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	engine     *search.Engine
}

// Routes are the handlers mounted under /api.
type Routes struct {
	Search    *handlers.SearchHandler
	Documents *handlers.DocumentHandler
	Health    *handlers.HealthHandler
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, a *App) *Server {
	engine := search.NewEngine(a.DBClient, a.Embedder,
		search.WithDefaultAlpha(cfg.SearchAlpha),
		search.WithTopK(cfg.SearchDefaultTopK, cfg.SearchMaxTopK),
		search.WithSearchLogging(cfg.SearchLogging),
	)
	docService := services.NewDocumentService(a.DBClient, a.ObjectClient, a.Jobs)
	reprocess := services.NewReprocessService(a.DBClient, a.Jobs)

	r := NewRouter(cfg, Routes{
		Search:    handlers.NewSearchHandler(engine, reprocess),
		Documents: handlers.NewDocumentHandler(docService),
		Health:    handlers.NewHealthHandler(a.DBClient),
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, engine: engine}
}

// NewRouter mounts the public health routes and the JWT-protected search
// and upload routes under /api.
func NewRouter(cfg *config.Config, routes Routes) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Get("/health", routes.Health.Health)
		api.Get("/health/db", routes.Health.Database)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Get("/search", routes.Search.Search)
			protected.Get("/search/stats", routes.Search.Stats)
			protected.Post("/upload", routes.Documents.UploadDocument)
			protected.Get("/documents/{id}", routes.Documents.GetDocument)
		})
	})
	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and waits for pending search log writes.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down HTTP server...")
	err := s.httpServer.Shutdown(ctx)
	s.engine.Wait()
	return err
}
