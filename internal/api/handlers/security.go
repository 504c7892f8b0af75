package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

type SecurityHandler struct {
	mc     *monitoring.MonitoringContext
	logger logger.Logger
}

func NewSecurityHandler(mc *monitoring.MonitoringContext, log logger.Logger) *SecurityHandler {
	return &SecurityHandler{mc: mc, logger: log}
}

// CheckContext runs the security detector for a request context supplied
// by a sidecar-embedded service. The response carries the detected event
// when a pattern matched.
func (h *SecurityHandler) CheckContext(c *gin.Context) {
	var sc models.SecurityContext
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.mc.CheckSecurityContext(c.Request.Context(), &sc)
	if err != nil {
		// detector failures never surface as request failures
		h.logger.Error("Security check failed internally", "error", err)
		c.JSON(http.StatusOK, gin.H{"detected": false})
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"detected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detected": true, "event": ev})
}

func (h *SecurityHandler) GetSummary(c *gin.Context) {
	window := parseWindow(c, time.Hour)
	c.JSON(http.StatusOK, h.mc.SecuritySummary(c.Request.Context(), window))
}
