package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
)

// RegisterAuthRoutes sets up authentication and account administration routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client) {
	authController := controllers.NewAuthController(db)

	// Public authentication routes
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)

	// Authenticated account routes
	account := e.Group("/api/account", middleware.JWTMiddleware())
	account.PUT("/fcm-token", authController.UpdateFCMToken)

	// Admin account administration
	admin := e.Group("/api/admin/users", middleware.JWTMiddleware(), middleware.RequireUserType(models.RoleAdmin))
	admin.GET("/pending", authController.ListPendingUsers)
	admin.PUT("/:id/status", authController.SetUserStatus)
}
