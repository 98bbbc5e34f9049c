package handlers

import (
	"errors"
	"net/http"

	"relief_backend/internal/middleware"
	"relief_backend/internal/models"
	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DistributionHandler serves recommendations and distribution plans.
type DistributionHandler struct {
	distributionService services.DistributionService
}

// NewDistributionHandler creates a new DistributionHandler.
func NewDistributionHandler(ds services.DistributionService) *DistributionHandler {
	return &DistributionHandler{distributionService: ds}
}

func respondDistributionError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrPlanNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Distribution plan not found.", err.Error()))
	} else if errors.Is(err, services.ErrRequestNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Request not found.", err.Error()))
	} else if errors.Is(err, services.ErrRequestNotApproved) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Only approved requests can be planned.", err.Error()))
	} else if errors.Is(err, services.ErrInvalidPlanTransition) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Plan status change not allowed.", err.Error()))
	} else if errors.Is(err, services.ErrInsufficientStock) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Not enough stock to execute the plan.", err.Error()))
	} else if errors.Is(err, services.ErrPlanNotDeletable) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Plan cannot be deleted in its current status.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
	} else {
		utils.RespondInternalError(c, fallback)
	}
}

// Recommend handles POST /distribution/recommendations.
func (h *DistributionHandler) Recommend(c *gin.Context) {
	var req services.RecommendationPayload
	if !bindJSON(c, &req, "Recommend") {
		return
	}

	result, err := h.distributionService.Recommend(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "Recommend: Error from distributionService.Recommend")
		respondDistributionError(c, err, "Failed to compute recommendations.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, result)
}

// CreatePlans handles POST /distribution/plans. Warnings for skipped items are returned alongside the plans.
func (h *DistributionHandler) CreatePlans(c *gin.Context) {
	var req services.CreatePlansPayload
	if !bindJSON(c, &req, "CreatePlans") {
		return
	}

	result, err := h.distributionService.CreatePlans(c.Request.Context(), req, middleware.UserIDPtr(c))
	if err != nil {
		if errors.Is(err, services.ErrNoPlansCreated) && result != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    utils.ErrCodeValidationFailed,
					"message": "No plan could be created.",
					"details": err.Error(),
				},
				"warnings": result.Warnings,
			})
			return
		}
		utils.LogError(err, "CreatePlans: Error from distributionService.CreatePlans")
		respondDistributionError(c, err, "Failed to create distribution plans.")
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, result)
}

// GetPlans handles GET /distribution/plans.
func (h *DistributionHandler) GetPlans(c *gin.Context) {
	requestID, ok := queryInt64(c, "request_id")
	if !ok {
		return
	}
	filters := models.PlanFilters{Status: queryString(c, "status"), RequestID: requestID}
	filters.Page, filters.PageSize = pageQuery(c)

	plans, total, err := h.distributionService.GetPlans(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetPlans: Error from distributionService.GetPlans")
		respondDistributionError(c, err, "Failed to fetch distribution plans.")
		return
	}
	utils.RespondPaginated(c, plans, utils.NewPagination(filters.Page, filters.PageSize, total))
}

// GetPlanByID handles GET /distribution/plans/:id.
func (h *DistributionHandler) GetPlanByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return
	}

	plan, err := h.distributionService.GetPlanByID(c.Request.Context(), id)
	if err != nil {
		utils.LogError(err, "GetPlanByID: Error for ID "+utils.Int64ToStr(id))
		respondDistributionError(c, err, "Failed to fetch distribution plan.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, plan)
}

// UpdatePlanStatus handles PATCH /distribution/plans/:id/status.
func (h *DistributionHandler) UpdatePlanStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return
	}
	var req services.UpdatePlanStatusPayload
	if !bindJSON(c, &req, "UpdatePlanStatus") {
		return
	}

	plan, err := h.distributionService.UpdatePlanStatus(c.Request.Context(), id, req, middleware.UserIDPtr(c))
	if err != nil {
		utils.LogError(err, "UpdatePlanStatus: Error for ID "+utils.Int64ToStr(id))
		respondDistributionError(c, err, "Failed to update plan status.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, plan)
}

// ExecutePlan handles POST /distribution/plans/:id/execute.
func (h *DistributionHandler) ExecutePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return
	}

	plan, err := h.distributionService.ExecutePlan(c.Request.Context(), id, middleware.UserIDPtr(c))
	if err != nil {
		utils.LogError(err, "ExecutePlan: Error for ID "+utils.Int64ToStr(id))
		respondDistributionError(c, err, "Failed to execute distribution plan.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, plan)
}

// DeletePlan handles DELETE /distribution/plans/:id.
func (h *DistributionHandler) DeletePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "plan")
	if !ok {
		return
	}

	if err := h.distributionService.DeletePlan(c.Request.Context(), id); err != nil {
		utils.LogError(err, "DeletePlan: Error for ID "+utils.Int64ToStr(id))
		respondDistributionError(c, err, "Failed to delete distribution plan.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Distribution plan deleted successfully.")
}
