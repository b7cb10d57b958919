package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
)

// RegisterFacilityRoutes sets up the facility catalogue routes
func RegisterFacilityRoutes(e *echo.Echo, db *mongo.Client) {
	facilityController := controllers.NewFacilityController(db)

	facilities := e.Group("/api/facilities", middleware.JWTMiddleware())
	facilities.GET("", facilityController.ListFacilities)
	facilities.POST("", facilityController.CreateFacility, middleware.RequireUserType(models.RoleAdmin))
}
