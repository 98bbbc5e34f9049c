package handlers

import (
	"errors"
	"net/http"

	"relief_backend/internal/models"
	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BeneficiaryHandler serves beneficiaries and the requests filed under them.
type BeneficiaryHandler struct {
	beneficiaryService services.BeneficiaryService
	requestService     services.RequestService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(bs services.BeneficiaryService, rs services.RequestService) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaryService: bs, requestService: rs}
}

func respondBeneficiaryError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrBeneficiaryNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Beneficiary not found.", err.Error()))
	} else if errors.Is(err, services.ErrBeneficiaryInUse) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Beneficiary still has requests.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
	} else {
		utils.RespondInternalError(c, fallback)
	}
}

// CreateBeneficiary handles POST /beneficiaries.
func (h *BeneficiaryHandler) CreateBeneficiary(c *gin.Context) {
	var req services.BeneficiaryPayload
	if !bindJSON(c, &req, "CreateBeneficiary") {
		return
	}

	b, err := h.beneficiaryService.CreateBeneficiary(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "CreateBeneficiary: Error from beneficiaryService.CreateBeneficiary")
		respondBeneficiaryError(c, err, "Failed to create beneficiary.")
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, b)
}

// GetBeneficiaries handles GET /beneficiaries with search, type and pagination.
func (h *BeneficiaryHandler) GetBeneficiaries(c *gin.Context) {
	filters := models.BeneficiaryFilters{
		Search: queryString(c, "search"),
		Type:   queryString(c, "type"),
	}
	filters.Page, filters.PageSize = pageQuery(c)

	list, total, err := h.beneficiaryService.GetBeneficiaries(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetBeneficiaries: Error from beneficiaryService.GetBeneficiaries")
		respondBeneficiaryError(c, err, "Failed to fetch beneficiaries.")
		return
	}
	utils.RespondPaginated(c, list, utils.NewPagination(filters.Page, filters.PageSize, total))
}

// GetBeneficiaryByID handles GET /beneficiaries/:id.
func (h *BeneficiaryHandler) GetBeneficiaryByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "beneficiary")
	if !ok {
		return
	}

	b, err := h.beneficiaryService.GetBeneficiaryByID(c.Request.Context(), id)
	if err != nil {
		utils.LogError(err, "GetBeneficiaryByID: Error for ID "+utils.Int64ToStr(id))
		respondBeneficiaryError(c, err, "Failed to fetch beneficiary.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, b)
}

// UpdateBeneficiary handles PUT /beneficiaries/:id.
func (h *BeneficiaryHandler) UpdateBeneficiary(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "beneficiary")
	if !ok {
		return
	}
	var req services.BeneficiaryPayload
	if !bindJSON(c, &req, "UpdateBeneficiary") {
		return
	}

	b, err := h.beneficiaryService.UpdateBeneficiary(c.Request.Context(), id, req)
	if err != nil {
		utils.LogError(err, "UpdateBeneficiary: Error for ID "+utils.Int64ToStr(id))
		respondBeneficiaryError(c, err, "Failed to update beneficiary.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, b)
}

// DeleteBeneficiary handles DELETE /beneficiaries/:id.
func (h *BeneficiaryHandler) DeleteBeneficiary(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "beneficiary")
	if !ok {
		return
	}

	if err := h.beneficiaryService.DeleteBeneficiary(c.Request.Context(), id); err != nil {
		utils.LogError(err, "DeleteBeneficiary: Error for ID "+utils.Int64ToStr(id))
		respondBeneficiaryError(c, err, "Failed to delete beneficiary.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Beneficiary deleted successfully.")
}

// GetBeneficiaryRequests handles GET /beneficiaries/:id/requests.
func (h *BeneficiaryHandler) GetBeneficiaryRequests(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "beneficiary")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.beneficiaryService.GetBeneficiaryByID(ctx, id); err != nil {
		respondBeneficiaryError(c, err, "Failed to fetch beneficiary.")
		return
	}

	filters := models.RequestFilters{BeneficiaryID: &id, Status: queryString(c, "status")}
	filters.Page, filters.PageSize = pageQuery(c)
	list, total, err := h.requestService.GetRequests(ctx, filters)
	if err != nil {
		utils.LogError(err, "GetBeneficiaryRequests: Error for beneficiary "+utils.Int64ToStr(id))
		respondRequestError(c, err, "Failed to fetch requests.")
		return
	}
	utils.RespondPaginated(c, list, utils.NewPagination(filters.Page, filters.PageSize, total))
}
