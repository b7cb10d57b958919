package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/controllers"
	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// RegisterBillRoutes sets up bill and payment routes
func RegisterBillRoutes(e *echo.Echo, db *mongo.Client, payments *services.PaymentService) {
	billController := controllers.NewBillController(db, payments)

	bills := e.Group("/api/bills", middleware.JWTMiddleware(), middleware.RequireUserType(models.RoleAdmin))
	bills.POST("", billController.IssueBill)
	bills.GET("", billController.ListBills)

	group := e.Group("/api/payments", middleware.JWTMiddleware())
	group.GET("/mine", billController.GetMyPayments)
	group.GET("/submitted", billController.GetSubmittedPayments, middleware.RequireUserType(models.RoleAdmin))
	group.PUT("/:id/submit", billController.SubmitPayment)
	group.PUT("/:id/decision", billController.DecidePayment)
}
