package routes

import (
	"pcdash/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterAlertRoutes(r *gin.Engine, ac *controllers.AlertsController) {
	alerts := r.Group("/alerts")
	{
		alerts.GET("/", ac.GetAlerts)
		alerts.PUT("/thresholds", ac.SetThresholds)
	}
}
