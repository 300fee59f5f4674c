package app

import (
	"github.com/labstack/echo/v4"
)

// MetricsPath and HealthPath are served on the metrics listener only
const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

// setupRoutes registers the public API. Anything not registered here falls
// through to echo's not found handling.
func (s *Server) setupRoutes() {
	s.container.SubscriptionController.RegisterRoutes(s.echo, s.container.AdminGate, s.container.ClientGate)
	s.logger.Debug("registered routes", "controller", s.container.SubscriptionController.GetName())
}

func (s *Server) setupMetricsRoutes() {
	s.metricsEcho.GET(MetricsPath, echo.WrapHandler(s.container.Metrics.Handler()))
	s.metricsEcho.GET(HealthPath, s.container.HealthController.HealthCheck)
	s.logger.Debug("registered routes", "controller", s.container.HealthController.GetName())
}
