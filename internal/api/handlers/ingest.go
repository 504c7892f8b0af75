package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

// IngestHandler accepts telemetry from instrumented services running the
// engine as a sidecar.
type IngestHandler struct {
	mc     *monitoring.MonitoringContext
	logger logger.Logger
}

func NewIngestHandler(mc *monitoring.MonitoringContext, log logger.Logger) *IngestHandler {
	return &IngestHandler{mc: mc, logger: log}
}

type recordMetricRequest struct {
	Name  string            `json:"name" binding:"required"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit"`
	Tags  map[string]string `json:"tags"`
}

func (h *IngestHandler) RecordMetric(c *gin.Context) {
	var req recordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mc.RecordMetric(req.Name, req.Value, req.Unit, req.Tags)
	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}

func (h *IngestHandler) RecordLog(c *gin.Context) {
	var entry models.LogEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mc.RecordLog(entry)
	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}

func (h *IngestHandler) GetMetricsSummary(c *gin.Context) {
	window := parseWindow(c, time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"window":  window.String(),
		"metrics": h.mc.MetricsSummary(window),
	})
}

// parseWindow reads the optional ?window= duration query parameter.
func parseWindow(c *gin.Context, fallback time.Duration) time.Duration {
	raw := c.Query("window")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
