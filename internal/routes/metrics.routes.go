package routes

import (
	"pcdash/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterMonitorRoutes(r *gin.Engine, mc *controllers.MetricsController) {
	metrics := r.Group("/metrics")
	{
		metrics.GET("/", mc.GetStatus)
		metrics.GET("/views", mc.GetViews)
		metrics.GET("/:metric", mc.GetSample)
		metrics.GET("/:metric/view", mc.GetView)
		metrics.PUT("/:metric/lookback", mc.SetLookback)
	}
}
