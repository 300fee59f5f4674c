package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/takutakahashi/push-registry/internal/domain/entities"
	"github.com/takutakahashi/push-registry/internal/usecases/ports/repositories"
	"github.com/takutakahashi/push-registry/pkg/metrics"
)

// ManageSubscriptionUseCase registers, unregisters and lists push subscriptions
type ManageSubscriptionUseCase struct {
	repo    repositories.SubscriptionRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewManageSubscriptionUseCase creates a new ManageSubscriptionUseCase.
// metrics may be nil.
func NewManageSubscriptionUseCase(
	repo repositories.SubscriptionRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ManageSubscriptionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManageSubscriptionUseCase{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Register adds a push token for an identity
func (uc *ManageSubscriptionUseCase) Register(ctx context.Context, reg entities.Registration) (entities.RegisterResult, error) {
	log := uc.operationLogger("register", reg)

	result, err := uc.repo.Register(ctx, reg)
	if err != nil {
		uc.logFailure(log, err)
		return entities.RegisterResult{}, fmt.Errorf("register subscription: %w", err)
	}

	uc.metrics.Registered(result.IsNewToken)
	uc.refreshSize(ctx)
	log.Info("registered push token",
		"is_new_token", result.IsNewToken,
		"total_tokens", result.TotalTokens,
		"has_secondary_token", reg.SecondaryToken != "",
	)
	return result, nil
}

// Unregister removes a push token from an identity
func (uc *ManageSubscriptionUseCase) Unregister(ctx context.Context, reg entities.Registration) (entities.UnregisterResult, error) {
	log := uc.operationLogger("unregister", reg)

	result, err := uc.repo.Unregister(ctx, reg)
	if err != nil {
		uc.logFailure(log, err)
		return entities.UnregisterResult{}, fmt.Errorf("unregister subscription: %w", err)
	}

	uc.metrics.Unregistered(result.Removed)
	if result.Removed {
		uc.refreshSize(ctx)
	}
	log.Info("unregistered push token",
		"removed", result.Removed,
		"total_tokens", result.TotalTokens,
	)
	return result, nil
}

// List returns every subscription record sorted by identity
func (uc *ManageSubscriptionUseCase) List(ctx context.Context) ([]entities.SubscriptionRecord, error) {
	records, err := uc.repo.GetAll(ctx)
	if err != nil {
		uc.logger.Error("failed to list subscriptions", "operation", "list", "error", err)
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	uc.logger.Debug("listed subscriptions", "operation", "list", "identities", len(records))
	return records, nil
}

// RefreshMetrics publishes the current registry size. It is called once
// after the repository has been loaded.
func (uc *ManageSubscriptionUseCase) RefreshMetrics(ctx context.Context) {
	uc.refreshSize(ctx)
}

func (uc *ManageSubscriptionUseCase) refreshSize(ctx context.Context) {
	identities, tokens := uc.repo.Stats(ctx)
	uc.metrics.SetSize(identities, tokens)
}

func (uc *ManageSubscriptionUseCase) operationLogger(operation string, reg entities.Registration) *slog.Logger {
	return uc.logger.With(
		"operation", operation,
		"identity", entities.NormalizeIdentity(reg.Identity),
		"platform", reg.Platform,
	)
}

func (uc *ManageSubscriptionUseCase) logFailure(log *slog.Logger, err error) {
	if entities.IsValidationError(err) {
		log.Warn("rejected subscription request", "error", err)
		return
	}
	if entities.IsPersistenceError(err) {
		uc.metrics.PersistFailed()
	}
	log.Error("subscription operation failed", "error", err)
}
