package routes

import (
	"pcdash/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes registers the live stream endpoint
func RegisterWebSocketRoutes(r *gin.Engine, wc *controllers.WebSocketController) {
	r.GET("/ws", wc.HandleWebSocket)
}
