package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

type GovernanceHandler struct {
	mc     *monitoring.MonitoringContext
	logger logger.Logger
}

func NewGovernanceHandler(mc *monitoring.MonitoringContext, log logger.Logger) *GovernanceHandler {
	return &GovernanceHandler{mc: mc, logger: log}
}

// CheckInteraction runs the governance detector on one prompt/response
// pair. When the result is blocked the caller must serve the safe
// response instead of the raw model output.
func (h *GovernanceHandler) CheckInteraction(c *gin.Context) {
	var in models.AIInteraction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.mc.CheckAIInteraction(&in))
}

func (h *GovernanceHandler) GetSummary(c *gin.Context) {
	window := parseWindow(c, time.Hour)
	c.JSON(http.StatusOK, h.mc.GovernanceSummary(window))
}
