package handlers

import (
	"net/http"

	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves dashboard summaries.
type ReportHandler struct {
	inventoryService services.InventoryService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(is services.InventoryService) *ReportHandler {
	return &ReportHandler{inventoryService: is}
}

// GetInventoryStats handles GET /inventory/stats: totals, value, per-status and per-category counts.
func (h *ReportHandler) GetInventoryStats(c *gin.Context) {
	stats, err := h.inventoryService.GetStats(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetInventoryStats: Error from inventoryService.GetStats")
		utils.RespondInternalError(c, "Failed to compute inventory statistics.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, stats)
}
