package handlers

import (
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID)
	}
}
