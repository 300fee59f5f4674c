package presenters

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/push-registry/internal/domain/entities"
)

// Messages returned in the error envelope for failures that carry no
// caller-facing message of their own
const (
	MessageNotFound     = "Not found."
	MessageUnauthorized = "Invalid or missing authorization token."
	MessagePersistence  = "Failed to persist subscriptions."
	MessageInternal     = "Internal server error."
)

// SubscriptionPresenter defines how subscription results are written to the client
type SubscriptionPresenter interface {
	PresentRegister(c echo.Context, result entities.RegisterResult) error
	PresentUnregister(c echo.Context, result entities.UnregisterResult) error
	PresentList(c echo.Context, records []entities.SubscriptionRecord) error
	PresentError(err error, c echo.Context)
}

// MutationResponse is the body of register and unregister responses
type MutationResponse struct {
	Success     bool `json:"success"`
	TotalTokens int  `json:"totalTokens"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPSubscriptionPresenter implements SubscriptionPresenter with JSON envelopes
type HTTPSubscriptionPresenter struct {
	logger *slog.Logger
}

// NewHTTPSubscriptionPresenter creates a new HTTPSubscriptionPresenter
func NewHTTPSubscriptionPresenter(logger *slog.Logger) *HTTPSubscriptionPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSubscriptionPresenter{logger: logger}
}

// PresentRegister writes {success: true, totalTokens}
func (p *HTTPSubscriptionPresenter) PresentRegister(c echo.Context, result entities.RegisterResult) error {
	return c.JSON(http.StatusOK, MutationResponse{
		Success:     true,
		TotalTokens: result.TotalTokens,
	})
}

// PresentUnregister writes {success: removed, totalTokens}
func (p *HTTPSubscriptionPresenter) PresentUnregister(c echo.Context, result entities.UnregisterResult) error {
	return c.JSON(http.StatusOK, MutationResponse{
		Success:     result.Removed,
		TotalTokens: result.TotalTokens,
	})
}

// PresentList writes the raw record array
func (p *HTTPSubscriptionPresenter) PresentList(c echo.Context, records []entities.SubscriptionRecord) error {
	if records == nil {
		records = []entities.SubscriptionRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// PresentError maps err onto a status code and writes {error: message}.
// It is installed as the echo HTTPErrorHandler.
func (p *HTTPSubscriptionPresenter) PresentError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := p.classify(err)
	if status >= http.StatusInternalServerError {
		p.logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"status", status,
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: message})
	}
	if err != nil {
		p.logger.Error("failed to write error response", "error", err)
	}
}

func (p *HTTPSubscriptionPresenter) classify(err error) (int, string) {
	var validationErr *entities.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}
	if errors.Is(err, entities.ErrUnauthorized) {
		return http.StatusUnauthorized, MessageUnauthorized
	}
	if entities.IsPersistenceError(err) {
		return http.StatusInternalServerError, MessagePersistence
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, MessageNotFound
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, MessageUnauthorized
		}
		if httpErr.Code < http.StatusInternalServerError {
			return httpErr.Code, http.StatusText(httpErr.Code) + "."
		}
		return httpErr.Code, MessageInternal
	}

	return http.StatusInternalServerError, MessageInternal
}
