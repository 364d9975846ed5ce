package controllers

import (
	"errors"
	"net/http"

	"pcdash/internal/models"
	"pcdash/internal/services"

	"github.com/gin-gonic/gin"
)

// MetricsController serves readouts and windows from the dashboard
type MetricsController struct {
	Dashboard *services.Dashboard
}

func NewMetricsController(d *services.Dashboard) *MetricsController {
	return &MetricsController{Dashboard: d}
}

// GetStatus returns every readout, panel header and alert state
func (mc *MetricsController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, mc.Dashboard.Status())
}

// GetSample returns the latest sample of one metric
func (mc *MetricsController) GetSample(c *gin.Context) {
	metric, ok := metricParam(c)
	if !ok {
		return
	}

	sample, err := mc.Dashboard.Sample(metric)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// metricParam parses the :metric path segment, writing a 404 when unknown
func metricParam(c *gin.Context) (models.Metric, bool) {
	metric, err := models.ParseMetric(c.Param("metric"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return 0, false
	}
	return metric, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownMetric):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrLookbackRange), errors.Is(err, services.ErrInvalidThreshold):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
