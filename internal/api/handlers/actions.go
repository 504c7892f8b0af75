package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

type ActionsHandler struct {
	mc     *monitoring.MonitoringContext
	logger logger.Logger
}

func NewActionsHandler(mc *monitoring.MonitoringContext, log logger.Logger) *ActionsHandler {
	return &ActionsHandler{mc: mc, logger: log}
}

// GetExecutions returns the action execution audit log, newest last.
func (h *ActionsHandler) GetExecutions(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	executions := h.mc.Executions(limit)
	c.JSON(http.StatusOK, gin.H{
		"count":      len(executions),
		"executions": executions,
	})
}
