package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/utils"
	"github.com/smartvillage/backend/websocket"
)

// AnnouncementController handles village-wide announcements
type AnnouncementController struct {
	announcements *repositories.AnnouncementRepository
	hub           *websocket.Hub
}

// NewAnnouncementController creates a new announcement controller
func NewAnnouncementController(db *mongo.Client, hub *websocket.Hub) *AnnouncementController {
	return &AnnouncementController{
		announcements: repositories.NewAnnouncementRepository(db),
		hub:           hub,
	}
}

// CreateAnnouncement publishes an announcement and broadcasts it to every
// connected user. Admin access is enforced on the route.
func (c *AnnouncementController) CreateAnnouncement(ctx echo.Context) error {
	authorID, err := utils.GetUserIDFromToken(ctx)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.AnnouncementRequest
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

	announcement := &models.Announcement{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Content:     req.Content,
		Tag:         req.Tag,
		AuthorID:    authorID,
		PublishedAt: time.Now(),
	}
	if err := c.announcements.Insert(reqCtx, announcement); err != nil {
		log.Printf("Failed to insert announcement: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to publish announcement",
		})
	}

	c.hub.Broadcast(reqCtx, models.EventNewAnnouncement, announcement)

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Announcement published",
		Data:    announcement,
	})
}

// ListAnnouncements returns all announcements, newest first.
func (c *AnnouncementController) ListAnnouncements(ctx echo.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
	defer cancel()

	announcements, err := c.announcements.ListAll(reqCtx)
	if err != nil {
		log.Printf("Failed to list announcements: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Announcements retrieved",
		Data:    announcements,
	})
}
