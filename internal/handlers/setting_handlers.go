package handlers

import (
	"errors"
	"net/http"
	"strings"

	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ThresholdHandler manages the per-item safety thresholds.
type ThresholdHandler struct {
	thresholdService services.ThresholdService
}

// NewThresholdHandler creates a new ThresholdHandler.
func NewThresholdHandler(ts services.ThresholdService) *ThresholdHandler {
	return &ThresholdHandler{thresholdService: ts}
}

// GetThresholds handles GET /inventory/thresholds.
func (h *ThresholdHandler) GetThresholds(c *gin.Context) {
	thresholds, err := h.thresholdService.GetEffectiveThresholds(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetThresholds: Error from thresholdService.GetEffectiveThresholds")
		utils.RespondInternalError(c, "Failed to fetch thresholds.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, thresholds)
}

// UpsertThreshold handles PUT /inventory/thresholds/:name.
func (h *ThresholdHandler) UpsertThreshold(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	var req services.ThresholdPayload
	if !bindJSON(c, &req, "UpsertThreshold") {
		return
	}

	threshold, err := h.thresholdService.UpsertOverride(c.Request.Context(), name, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "UpsertThreshold: Error for item "+name)
		utils.RespondInternalError(c, "Failed to save threshold.")
		return
	}
	utils.LogInfo("Threshold override saved", map[string]interface{}{"item": threshold.ItemTypeName})
	utils.RespondSuccess(c, http.StatusOK, threshold)
}

// DeleteThreshold handles DELETE /inventory/thresholds/:name. Built-in values apply again afterwards.
func (h *ThresholdHandler) DeleteThreshold(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if err := h.thresholdService.DeleteOverride(c.Request.Context(), name); err != nil {
		if errors.Is(err, services.ErrThresholdOverrideNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Threshold override not found.", err.Error()))
			return
		}
		utils.LogError(err, "DeleteThreshold: Error for item "+name)
		utils.RespondInternalError(c, "Failed to delete threshold override.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Threshold override removed.")
}
