package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartvillage/backend/middleware"
	"github.com/smartvillage/backend/utils"
	"github.com/smartvillage/backend/websocket"
)

// RegisterWebSocketRoutes sets up the live event stream endpoint
func RegisterWebSocketRoutes(e *echo.Echo, hub *websocket.Hub) {
	e.GET("/api/ws", func(c echo.Context) error {
		userID, err := utils.GetUserIDFromToken(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return websocket.HandleWebSocket(c, hub, userID.Hex())
	}, middleware.JWTMiddleware())
}
