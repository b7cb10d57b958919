package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
)

// RegisterVisitorRoutes sets up visitor registration and gate pass routes
func RegisterVisitorRoutes(e *echo.Echo, db *mongo.Client) {
	visitorController := controllers.NewVisitorController(db)

	group := e.Group("/api/visitors", middleware.JWTMiddleware())
	group.POST("", visitorController.RegisterVisitor)
	group.GET("/mine", visitorController.GetMyVisitors)
	group.GET("/:id/pass", visitorController.GetGatePass)
	group.GET("/verify/:code", visitorController.VerifyPassCode, middleware.RequireUserType(models.RoleAdmin))
}
