package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type viewQuery struct {
	Lookback int `form:"lookback" binding:"omitempty,min=60,max=3600"`
}

type lookbackRequest struct {
	LookbackSeconds int `json:"lookback_seconds" binding:"required,min=60,max=3600"`
}

// GetView returns the trailing window of a metric.
// Query params: lookback=60..3600 seconds (default: the metric's selected window)
func (mc *MetricsController) GetView(c *gin.Context) {
	metric, ok := metricParam(c)
	if !ok {
		return
	}

	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lookback must be between 60 and 3600 seconds"})
		return
	}

	view, err := mc.Dashboard.View(metric, q.Lookback)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetViews returns every metric at its selected window
func (mc *MetricsController) GetViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"views": mc.Dashboard.Views()})
}

// SetLookback changes the selected window of a metric
func (mc *MetricsController) SetLookback(c *gin.Context) {
	metric, ok := metricParam(c)
	if !ok {
		return
	}

	var req lookbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lookback_seconds must be between 60 and 3600"})
		return
	}

	if err := mc.Dashboard.SetLookback(metric, req.LookbackSeconds); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric":           metric,
		"lookback_seconds": req.LookbackSeconds,
	})
}
