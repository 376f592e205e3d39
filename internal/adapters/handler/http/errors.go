package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// attached to the context for the request logger and hidden from clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidActivity),
		errors.Is(err, domain.ErrInvalidActivityType),
		errors.Is(err, domain.ErrInvalidSuggestion),
		errors.Is(err, domain.ErrInvalidSortKey),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, errorResponse{Error: "access denied"})

	case errors.Is(err, domain.ErrActivityNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "activity not found"})
	case errors.Is(err, domain.ErrSuggestionNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "suggestion not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})

	case errors.Is(err, domain.ErrActivityConflict):
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "version conflict",
			Message: "Data has been modified elsewhere. Reload and retry.",
		})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: "email already exists"})
	case errors.Is(err, domain.ErrSuggestionAlreadyImplemented):
		c.JSON(http.StatusConflict, errorResponse{Error: "suggestion already implemented"})

	case errors.Is(err, domain.ErrNoActivities):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "log some activities first"})

	case errors.Is(err, domain.ErrInferenceUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "insight generation is currently unavailable"})

	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func userFromContext(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "user context missing"})
	}
	return userID, ok
}
