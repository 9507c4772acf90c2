package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/clients"
	"storefront-service/internal/middleware"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// statusFor maps service and gateway errors to an HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, clients.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrInvalidReview),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrUnknownVariant):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrNoUserReview),
		errors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrNoProduct),
		errors.Is(err, services.ErrNotLoaded),
		errors.Is(err, services.ErrNoMorePages),
		errors.Is(err, services.ErrCartCleared),
		errors.Is(err, services.ErrNotEditing):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, clients.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.Is(err, clients.ErrNetwork):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		},
	})
}

func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// storefront returns the session's storefront; Session middleware always sets it
func storefront(c *gin.Context) (*services.Storefront, bool) {
	sf, ok := middleware.GetStorefront(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "NO_SESSION", Message: "session not initialized"},
		})
		return nil, false
	}
	return sf, true
}

// identity returns the session's storefront and logged-in user, writing a 401
// when no valid user is logged in
func identity(c *gin.Context) (*services.Storefront, models.Identity, bool) {
	sf, ok := storefront(c)
	if !ok {
		return nil, models.Identity{}, false
	}
	if id, ok := middleware.GetIdentity(c); ok {
		return sf, id, true
	}
	id, err := sf.Session.Current()
	if err != nil {
		respondError(c, err)
		return nil, models.Identity{}, false
	}
	return sf, id, true
}
