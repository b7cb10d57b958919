package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/repositories"
	"github.com/smartvillage/backend/services"
	"github.com/smartvillage/backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, tokens *services.RequestTokens) {
	bookingService := services.NewBookingService(repositories.NewBookingRepository(db), hub)
	repairService := services.NewRepairService(repositories.NewRepairRepository(db), hub)
	paymentService := services.NewPaymentService(
		repositories.NewBillRepository(db), repositories.NewPaymentRepository(db), hub)

	RegisterAuthRoutes(e, db)
	RegisterFacilityRoutes(e, db)
	RegisterBookingRoutes(e, db, bookingService, tokens)
	RegisterRepairRoutes(e, db, repairService)
	RegisterBillRoutes(e, db, paymentService)
	RegisterAnnouncementRoutes(e, db, hub)
	RegisterNotificationRoutes(e, db)
	RegisterVisitorRoutes(e, db)
	RegisterWebSocketRoutes(e, hub)
}
