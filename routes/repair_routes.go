package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// RegisterRepairRoutes sets up repair ticket routes
func RegisterRepairRoutes(e *echo.Echo, db *mongo.Client, repairs *services.RepairService) {
	repairController := controllers.NewRepairController(db, repairs)

	group := e.Group("/api/repairs", middleware.JWTMiddleware())
	group.POST("", repairController.CreateTicket)
	group.GET("/mine", repairController.GetMyTickets)
	group.GET("/all", repairController.GetAllTickets, middleware.RequireUserType(models.RoleAdmin))
	group.GET("/:id", repairController.GetTicket)
	group.PUT("/:id/event", repairController.TransitionTicket)
}
