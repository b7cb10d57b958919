package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/services"
	"github.com/smartvillage/backend/utils"
)

// RequestTokenHeader carries the client's deduplication token for retried
// submissions.
const RequestTokenHeader = "X-Request-Token"

// BookingController handles booking-related API endpoints
type BookingController struct {
	db         *mongo.Client
	bookings   *services.BookingService
	store      *repositories.BookingRepository
	facilities *repositories.FacilityRepository
	tokens     *services.RequestTokens
}

// NewBookingController creates a new booking controller
func NewBookingController(db *mongo.Client, bookings *services.BookingService, tokens *services.RequestTokens) *BookingController {
	return &BookingController{
		db:         db,
		bookings:   bookings,
		store:      repositories.NewBookingRepository(db),
		facilities: repositories.NewFacilityRepository(db),
		tokens:     tokens,
	}
}

// CreateBooking submits a new booking request. A repeated X-Request-Token
// from the same user returns the originally created booking instead of
// running the conflict check again.
func (c *BookingController) CreateBooking(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.BookingRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	facilityID, err := primitive.ObjectIDFromHex(req.FacilityID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid facility ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	token := ctx.Request().Header.Get(RequestTokenHeader)
	if existingID, err := c.tokens.Lookup(reqCtx, userID.Hex(), token); err != nil {
		log.Printf("Request token lookup failed: %v", err)
	} else if existingID != "" {
		bookingID, err := primitive.ObjectIDFromHex(existingID)
		if err == nil {
			if booking, err := c.store.FindByID(reqCtx, bookingID); err == nil {
				return ctx.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Booking already submitted",
					Data:    booking,
				})
			}
		}
	}

	if _, err := c.facilities.FindByID(reqCtx, facilityID); err != nil {
		return respondDomainError(ctx, err)
	}

	booking, err := c.bookings.Submit(reqCtx, facilityID, userID,
		models.TimeRange{Start: req.Start, End: req.End}, req.Purpose, req.AttendeeCount)
	if err != nil {
		return respondDomainError(ctx, err)
	}

	if err := c.tokens.Remember(reqCtx, userID.Hex(), token, booking.ID.Hex()); err != nil {
		log.Printf("Failed to remember request token: %v", err)
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Booking submitted",
		Data:    booking,
	})
}

// DecideBooking lets an admin approve or reject a pending booking.
// Admin access is enforced on the route.
func (c *BookingController) DecideBooking(ctx echo.Context) error {
	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	var req models.BookingDecisionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := c.bookings.Decide(reqCtx, bookingID, req.Decision)
	if err != nil {
		return respondDomainError(ctx, err)
	}

	// Push delivery runs in the background; the websocket event already went
	// out synchronously.
	go func() {
		title := "Booking " + booking.Status
		body := fmt.Sprintf("Your booking request has been %s.", booking.Status)
		if err := utils.SendFCMNotificationToUser(c.db, booking.UserID, title, body,
			map[string]string{"bookingId": booking.ID.Hex()}); err != nil {
			log.Printf("Failed to push booking decision to user %s: %v", booking.UserID.Hex(), err)
		}
	}()

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Booking " + booking.Status,
		Data:    booking,
	})
}

// CancelBooking lets the requester free a slot before the booking starts.
func (c *BookingController) CancelBooking(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	bookingID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booking ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := c.bookings.Cancel(reqCtx, bookingID, userID)
	if err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Booking cancelled",
		Data:    booking,
	})
}

// GetMyBookings lists the caller's bookings, newest first.
func (c *BookingController) GetMyBookings(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	bookings, err := c.store.ListByUser(reqCtx, userID)
	if err != nil {
		log.Printf("Failed to list bookings for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Bookings retrieved",
		Data:    bookings,
	})
}

// GetFacilitySchedule lists a facility's bookings ordered by start time, so
// residents can see which slots are taken.
func (c *BookingController) GetFacilitySchedule(ctx echo.Context) error {
	facilityID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid facility ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := c.facilities.FindByID(reqCtx, facilityID); err != nil {
		return respondDomainError(ctx, err)
	}

	bookings, err := c.store.ListByFacility(reqCtx, facilityID)
	if err != nil {
		log.Printf("Failed to list bookings for facility %s: %v", facilityID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Facility schedule retrieved",
		Data:    bookings,
	})
}

// GetPendingBookings lists bookings waiting for a decision, oldest first.
// Admin access is enforced on the route.
func (c *BookingController) GetPendingBookings(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	bookings, err := c.store.ListByStatus(reqCtx, models.BookingStatusPending)
	if err != nil {
		log.Printf("Failed to list pending bookings: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending bookings retrieved",
		Data:    bookings,
	})
}
