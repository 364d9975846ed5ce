package controllers

import (
	"net/http"

	"pcdash/internal/services"

	"github.com/gin-gonic/gin"
)

// AlertsController exposes threshold state and accepts threshold input
type AlertsController struct {
	Alerts *services.AlertEvaluator
}

func NewAlertsController(a *services.AlertEvaluator) *AlertsController {
	return &AlertsController{Alerts: a}
}

// GetAlerts returns each metric's alert state and the recently fired alerts
func (ac *AlertsController) GetAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuses": ac.Alerts.Statuses(),
		"recent":   ac.Alerts.Recent(),
	})
}

// SetThresholds applies free-text thresholds, e.g. {"cpu": "80", "download": "50.5"}.
// Each entry is applied on its own; blank text leaves a threshold unchanged.
// Responds 400 when any entry was rejected.
func (ac *AlertsController) SetThresholds(c *gin.Context) {
	var inputs map[string]string
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected an object of metric name to threshold text"})
		return
	}

	results := ac.Alerts.SetThresholds(inputs)

	status := http.StatusOK
	for _, r := range results {
		if r.Error != "" {
			status = http.StatusBadRequest
			break
		}
	}
	c.JSON(status, gin.H{
		"results":  results,
		"statuses": ac.Alerts.Statuses(),
	})
}
