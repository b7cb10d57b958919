package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/utils"
)

// NotificationController serves the durable notification feed. Clients use
// it to catch up when the websocket replay window has already moved on.
type NotificationController struct {
	notifications *repositories.NotificationRepository
}

// NewNotificationController creates a new notification controller
func NewNotificationController(db *mongo.Client) *NotificationController {
	return &NotificationController{
		notifications: repositories.NewNotificationRepository(db),
	}
}

// GetNotifications lists the caller's notifications, newest first.
// An optional ?limit= caps the page size (default 50).
func (c *NotificationController) GetNotifications(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	limit := int64(50)
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	notifications, err := c.notifications.ListByUser(reqCtx, userID, limit)
	if err != nil {
		log.Printf("Failed to list notifications for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved",
		Data:    notifications,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (c *NotificationController) MarkRead(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	notificationID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	if err := c.notifications.MarkRead(reqCtx, notificationID, userID); err != nil {
		return respondDomainError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// MarkAllRead marks every unread notification of the caller as read.
func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	userID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	if err := c.notifications.MarkAllRead(reqCtx, userID); err != nil {
		log.Printf("Failed to mark notifications read for user %s: %v", userID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
	})
}
