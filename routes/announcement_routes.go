package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/websocket"
)

// RegisterAnnouncementRoutes sets up announcement routes
func RegisterAnnouncementRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	announcementController := controllers.NewAnnouncementController(db, hub)

	group := e.Group("/api/announcements", middleware.JWTMiddleware())
	group.GET("", announcementController.ListAnnouncements)
	group.POST("", announcementController.CreateAnnouncement, middleware.RequireUserType(models.RoleAdmin))
}
