package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StoreStats reports the current size of the subscription registry
type StoreStats interface {
	Stats(ctx context.Context) (identities int, tokens int)
}

// HealthResponse is the body returned by the health endpoint
type HealthResponse struct {
	Status     string `json:"status"`
	Identities int    `json:"identities"`
	Tokens     int    `json:"tokens"`
}

// HealthController handles health check endpoints
type HealthController struct {
	stats StoreStats
}

// NewHealthController creates a new HealthController instance
func NewHealthController(stats StoreStats) *HealthController {
	return &HealthController{stats: stats}
}

// GetName returns the name of this controller for logging
func (c *HealthController) GetName() string {
	return "HealthController"
}

// HealthCheck handles GET /healthz requests to check server health
func (c *HealthController) HealthCheck(ctx echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if c.stats != nil {
		resp.Identities, resp.Tokens = c.stats.Stats(ctx.Request().Context())
	}
	return ctx.JSON(http.StatusOK, resp)
}
