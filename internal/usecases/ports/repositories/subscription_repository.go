package repositories

import (
	"context"

	"github.com/takutakahashi/push-registry/internal/domain/entities"
)

// SubscriptionRepository owns the identity -> push token registry
type SubscriptionRepository interface {
	// Load populates the registry from durable storage. It is called once at startup.
	Load(ctx context.Context) error

	// Register adds the registration's push token to its identity
	Register(ctx context.Context, reg entities.Registration) (entities.RegisterResult, error)

	// Unregister removes the registration's push token from its identity
	Unregister(ctx context.Context, reg entities.Registration) (entities.UnregisterResult, error)

	// GetAll returns every record sorted by identity
	GetAll(ctx context.Context) ([]entities.SubscriptionRecord, error)

	// Stats returns the number of identities and the number of tokens across them
	Stats(ctx context.Context) (identities int, tokens int)
}
