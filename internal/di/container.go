package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/push-registry/internal/infrastructure/repositories"
	"github.com/takutakahashi/push-registry/internal/interfaces/controllers"
	"github.com/takutakahashi/push-registry/internal/interfaces/presenters"
	repositories_ports "github.com/takutakahashi/push-registry/internal/usecases/ports/repositories"
	"github.com/takutakahashi/push-registry/internal/usecases/subscription"
	"github.com/takutakahashi/push-registry/pkg/auth"
	"github.com/takutakahashi/push-registry/pkg/config"
	"github.com/takutakahashi/push-registry/pkg/metrics"
)

// Container holds all dependencies for the application
type Container struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Repositories
	SubscriptionRepo repositories_ports.SubscriptionRepository

	// Use Cases
	ManageSubscriptionUC *subscription.ManageSubscriptionUseCase

	// Presenters
	SubscriptionPresenter *presenters.HTTPSubscriptionPresenter

	// Controllers
	SubscriptionController *controllers.SubscriptionController
	HealthController       *controllers.HealthController

	// Authorization gates
	AdminGate  echo.MiddlewareFunc
	ClientGate echo.MiddlewareFunc
}

// NewContainer wires the application and loads the subscription store.
// A corrupt backing file is returned as an error so startup can abort.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	container := &Container{
		Logger:  logger,
		Metrics: metrics.New(),
	}

	container.initRepositories(cfg)
	container.initUseCases()
	container.initPresenters()
	container.initControllers()
	container.initGates(cfg)

	if err := container.SubscriptionRepo.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load subscription store: %w", err)
	}
	container.ManageSubscriptionUC.RefreshMetrics(ctx)

	return container, nil
}

func (c *Container) initRepositories(cfg *config.Config) {
	c.SubscriptionRepo = repositories.NewFileSubscriptionRepository(
		cfg.StoreFile,
		c.Logger.With("component", "subscription_store"),
	)
}

func (c *Container) initUseCases() {
	c.ManageSubscriptionUC = subscription.NewManageSubscriptionUseCase(
		c.SubscriptionRepo,
		c.Metrics,
		c.Logger.With("component", "subscriptions"),
	)
}

func (c *Container) initPresenters() {
	c.SubscriptionPresenter = presenters.NewHTTPSubscriptionPresenter(c.Logger.With("component", "http"))
}

func (c *Container) initControllers() {
	c.SubscriptionController = controllers.NewSubscriptionController(c.ManageSubscriptionUC, c.SubscriptionPresenter)
	c.HealthController = controllers.NewHealthController(c.SubscriptionRepo)
}

func (c *Container) initGates(cfg *config.Config) {
	authLogger := c.Logger.With("component", "auth")
	c.AdminGate = auth.RequireAuthorization("admin", auth.NewGate(cfg.AdminToken), authLogger)
	c.ClientGate = auth.RequireAuthorization("client", auth.NewGate(cfg.ClientToken), authLogger)
}
