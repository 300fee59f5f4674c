package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/push-registry/internal/domain/entities"
	"github.com/takutakahashi/push-registry/internal/interfaces/presenters"
	"github.com/takutakahashi/push-registry/internal/usecases/subscription"
)

// SubscriptionsPath is the only resource the registry serves
const SubscriptionsPath = "/subscriptions"

// SubscriptionController handles HTTP requests for push subscriptions
type SubscriptionController struct {
	manageSubscriptionUC *subscription.ManageSubscriptionUseCase
	presenter            presenters.SubscriptionPresenter
}

// NewSubscriptionController creates a new SubscriptionController
func NewSubscriptionController(
	manageSubscriptionUC *subscription.ManageSubscriptionUseCase,
	presenter presenters.SubscriptionPresenter,
) *SubscriptionController {
	return &SubscriptionController{
		manageSubscriptionUC: manageSubscriptionUC,
		presenter:            presenter,
	}
}

// GetName returns the name of this controller for logging
func (c *SubscriptionController) GetName() string {
	return "SubscriptionController"
}

// RegisterRoutes mounts the subscription endpoints. adminGate protects the
// listing, clientGate protects register and unregister.
func (c *SubscriptionController) RegisterRoutes(e *echo.Echo, adminGate, clientGate echo.MiddlewareFunc) {
	e.GET(SubscriptionsPath, c.ListSubscriptions, adminGate)
	e.POST(SubscriptionsPath, c.RegisterSubscription, clientGate)
	e.DELETE(SubscriptionsPath, c.UnregisterSubscription, clientGate)
}

// ListSubscriptions handles GET /subscriptions
func (c *SubscriptionController) ListSubscriptions(ctx echo.Context) error {
	records, err := c.manageSubscriptionUC.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return c.presenter.PresentList(ctx, records)
}

// RegisterSubscription handles POST /subscriptions
func (c *SubscriptionController) RegisterSubscription(ctx echo.Context) error {
	reg, err := parseRegistration(ctx.Request())
	if err != nil {
		return err
	}

	result, err := c.manageSubscriptionUC.Register(ctx.Request().Context(), reg)
	if err != nil {
		return err
	}
	return c.presenter.PresentRegister(ctx, result)
}

// UnregisterSubscription handles DELETE /subscriptions
func (c *SubscriptionController) UnregisterSubscription(ctx echo.Context) error {
	reg, err := parseRegistration(ctx.Request())
	if err != nil {
		return err
	}

	result, err := c.manageSubscriptionUC.Unregister(ctx.Request().Context(), reg)
	if err != nil {
		return err
	}
	return c.presenter.PresentUnregister(ctx, result)
}

// parseRegistration reads the whole body, treats an empty body as {} and
// type-checks the registration fields. Returned values are trimmed but the
// identity is not yet case-folded.
func parseRegistration(r *http.Request) (entities.Registration, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return entities.Registration{}, entities.NewValidationError("Unable to read request body.")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return entities.Registration{}, entities.NewValidationError("Request body must be valid JSON.")
	}
	fields, ok := payload.(map[string]any)
	if !ok {
		return entities.Registration{}, entities.NewValidationError("Request body must be a JSON object.")
	}

	identity, ok := requiredString(fields, "identity")
	if !ok {
		return entities.Registration{}, entities.NewValidationError("Request body must include an identity.")
	}
	pushToken, ok := requiredString(fields, "pushToken")
	if !ok {
		return entities.Registration{}, entities.NewValidationError("Request body must include a pushToken.")
	}
	platform, ok := requiredString(fields, "platform")
	if !ok {
		return entities.Registration{}, entities.NewValidationError("Request body must include a platform.")
	}

	var secondaryToken string
	switch v := fields["secondaryToken"].(type) {
	case nil:
	case string:
		secondaryToken = strings.TrimSpace(v)
	default:
		return entities.Registration{}, entities.NewValidationError("secondaryToken must be a string when provided.")
	}

	return entities.Registration{
		Identity:       identity,
		PushToken:      pushToken,
		SecondaryToken: secondaryToken,
		Platform:       platform,
	}, nil
}

func requiredString(fields map[string]any, key string) (string, bool) {
	raw, ok := fields[key].(string)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	return value, value != ""
}
