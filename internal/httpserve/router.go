// Package httpserve assembles the registry server's echo application.
package httpserve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/BlankParticle/preview-pkg/internal/httpserve/handlers"
	"github.com/BlankParticle/preview-pkg/internal/httpserve/middleware"
	"github.com/BlankParticle/preview-pkg/internal/registry"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Server wraps the echo application and its lifecycle.
type Server struct {
	echo *echo.Echo
	port int
}

// NewServer wires routes, middleware, and handlers over the given store
// and identity resolver.
func NewServer(port int, store registry.Store, resolver middleware.IdentityResolver) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echoprometheus.NewMiddleware("preview_pkg"))

	pkgs := handlers.NewPackages(store)
	tokenCache := middleware.NewTokenCache(5 * time.Minute)
	requireToken := middleware.RequireToken(resolver, tokenCache)

	// Authenticated API surface.
	api := e.Group("/api")
	api.POST("/packages/:identity/upload", pkgs.Upload, requireToken)
	api.GET("/whoami", pkgs.Whoami, requireToken)

	// Public fetch boundary: install tools need no credentials.
	e.GET("/packages/:identity/:keyname/:version", pkgs.Fetch)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return &Server{echo: e, port: port}
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	logger.Info("registry server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
