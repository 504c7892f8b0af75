package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/engine"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

type AlertsHandler struct {
	mc     *monitoring.MonitoringContext
	logger logger.Logger
}

func NewAlertsHandler(mc *monitoring.MonitoringContext, log logger.Logger) *AlertsHandler {
	return &AlertsHandler{mc: mc, logger: log}
}

func (h *AlertsHandler) GetActiveAlerts(c *gin.Context) {
	alerts := h.mc.ActiveAlerts()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

type resolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by" binding:"required"`
}

func (h *AlertsHandler) ResolveAlert(c *gin.Context) {
	var req resolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.mc.ResolveAlert(id, req.ResolvedBy); err != nil {
		if errors.Is(err, engine.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved", "alert_id": id})
}

func (h *AlertsHandler) GetSummary(c *gin.Context) {
	window := parseWindow(c, time.Hour)
	c.JSON(http.StatusOK, h.mc.AlertSummary(window))
}

func (h *AlertsHandler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.mc.Engine().Rules()})
}
