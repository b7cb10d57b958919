package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// RegisterBookingRoutes sets up facility booking routes
func RegisterBookingRoutes(e *echo.Echo, db *mongo.Client, bookings *services.BookingService, tokens *services.RequestTokens) {
	bookingController := controllers.NewBookingController(db, bookings, tokens)

	group := e.Group("/api/bookings", middleware.JWTMiddleware())
	group.POST("", bookingController.CreateBooking)
	group.GET("/mine", bookingController.GetMyBookings)
	group.GET("/pending", bookingController.GetPendingBookings, middleware.RequireUserType(models.RoleAdmin))
	group.PUT("/:id/decision", bookingController.DecideBooking, middleware.RequireUserType(models.RoleAdmin))
	group.DELETE("/:id", bookingController.CancelBooking)

	e.GET("/api/facilities/:id/schedule", bookingController.GetFacilitySchedule, middleware.JWTMiddleware())
}
