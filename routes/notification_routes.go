package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
)

// RegisterNotificationRoutes sets up the durable notification feed routes
func RegisterNotificationRoutes(e *echo.Echo, db *mongo.Client) {
	notificationController := controllers.NewNotificationController(db)

	group := e.Group("/api/notifications", middleware.JWTMiddleware())
	group.GET("", notificationController.GetNotifications)
	group.PUT("/:id/read", notificationController.MarkRead)
	group.PUT("/read-all", notificationController.MarkAllRead)
}
