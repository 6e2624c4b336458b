package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/semantiq-dev/semantiq/internal/search"
	"github.com/semantiq-dev/semantiq/internal/store"
)

// maxBodyBytes caps a request body at 1 MiB, the same ceiling the original
// demo server enforces to bound memory use against oversized payloads.
const maxBodyBytes = "1M"

// Server is a thin REST wrapper over the retrieval engine, exposing the
// same four operations as the MCP tools (plus /health and /stats) as
// JSON endpoints for the interactive demo frontend.
type Server struct {
	e      *echo.Echo
	engine *search.Engine
	store  *store.Store
	logger *slog.Logger
}

// New builds a Server and registers its routes. corsOrigin, if non-empty,
// restricts CORS to that single origin; otherwise every origin is
// allowed, with a warning logged since that's unsuitable for production.
func New(engine *search.Engine, st *store.Store, corsOrigin string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if corsOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{corsOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost},
		}))
	} else {
		slog.Warn("no CORS origin configured, allowing all origins; set --cors-origin in production")
		e.Use(middleware.CORS())
	}

	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit(maxBodyBytes))

	s := &Server{
		e:      e,
		engine: engine,
		store:  st,
		logger: slog.Default(),
	}

	e.GET("/health", s.health)
	e.GET("/stats", s.stats)
	e.POST("/search", s.search)
	e.POST("/find-refs", s.findRefs)
	e.POST("/deps", s.deps)
	e.POST("/explain", s.explain)

	return s
}

// Start serves HTTP on addr (e.g. ":8080") until the listener errors or
// is closed from under it by Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting HTTP API server", slog.String("addr", addr))
	err := s.e.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
