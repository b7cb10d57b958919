package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// respondDomainError maps service-layer errors onto HTTP responses. Anything
// it does not recognize is an infrastructure failure and becomes a 500.
func respondDomainError(ctx echo.Context, err error) error {
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: conflict.Error(),
			Data:    map[string]string{"conflictingBookingId": conflict.BookingID},
		})
	}

	var invalid *services.InvalidTransitionError
	if errors.As(err, &invalid) {
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: invalid.Error(),
		})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Not found",
		})
	case errors.Is(err, services.ErrForbidden):
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not allowed to perform this action",
		})
	case errors.Is(err, services.ErrInvalidRange):
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidProof):
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrTooLate):
		return ctx.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: err.Error(),
		})
	}

	return ctx.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}
