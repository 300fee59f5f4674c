package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/takutakahashi/push-registry/internal/di"
	"github.com/takutakahashi/push-registry/pkg/config"
)

// Server represents the HTTP server of the registry and its optional
// metrics listener
type Server struct {
	config      *config.Config
	echo        *echo.Echo
	metricsEcho *echo.Echo
	logger      *slog.Logger
	container   *di.Container
}

// NewServer creates a new server instance from a wired container
func NewServer(cfg *config.Config, container *di.Container) *Server {
	s := &Server{
		config:    cfg,
		echo:      newEcho(),
		logger:    container.Logger.With("component", "server"),
		container: container,
	}

	s.echo.HTTPErrorHandler = container.SubscriptionPresenter.PresentError

	// CORS runs before routing so that preflights for any path get a 204
	s.echo.Pre(CORS())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	s.echo.Use(RequestLogger(container.Logger.With("component", "http")))
	s.echo.Use(middleware.Recover())

	s.setupRoutes()

	if cfg.MetricsAddr != "" {
		s.metricsEcho = newEcho()
		s.setupMetricsRoutes()
	}

	return s
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger, requests are logged through slog
	e.Logger.SetOutput(io.Discard)
	return e
}

// Start runs the listeners in the background. Listener failures other than
// a regular shutdown are sent to errs.
func (s *Server) Start(errs chan<- error) {
	go func() {
		s.logger.Info("starting push registry", "port", s.config.Port, "store_file", s.config.StoreFile)
		if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	if s.metricsEcho == nil {
		return
	}
	go func() {
		s.logger.Info("starting metrics listener", "addr", s.config.MetricsAddr)
		if err := s.metricsEcho.Start(s.config.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown gracefully stops both listeners
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.echo.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.metricsEcho != nil {
		if err := s.metricsEcho.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetEcho returns the Echo instance serving the public API
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}

// GetMetricsEcho returns the Echo instance serving /metrics and /healthz,
// nil when no metrics address is configured
func (s *Server) GetMetricsEcho() *echo.Echo {
	return s.metricsEcho
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
