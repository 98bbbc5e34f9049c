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

// RequestHandler serves beneficiary requests.
type RequestHandler struct {
	requestService services.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(rs services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: rs}
}

func respondRequestError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrRequestNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Request not found.", err.Error()))
	} else if errors.Is(err, services.ErrBeneficiaryNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Beneficiary not found.", err.Error()))
	} else if errors.Is(err, services.ErrItemTypeNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Item type not found.", err.Error()))
	} else if errors.Is(err, services.ErrInvalidRequestTransition) || errors.Is(err, services.ErrRequestNotDeletable) || errors.Is(err, services.ErrRequestInUse) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Request is not in a valid state for this action.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
	} else {
		utils.RespondInternalError(c, fallback)
	}
}

// CreateRequest handles POST /beneficiaries/requests.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req services.CreateRequestPayload
	if !bindJSON(c, &req, "CreateRequest") {
		return
	}

	created, err := h.requestService.CreateRequest(c.Request.Context(), req, middleware.UserIDPtr(c))
	if err != nil {
		utils.LogError(err, "CreateRequest: Error from requestService.CreateRequest")
		respondRequestError(c, err, "Failed to create request.")
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, created)
}

// GetRequests handles GET /beneficiaries/requests/all.
func (h *RequestHandler) GetRequests(c *gin.Context) {
	beneficiaryID, ok := queryInt64(c, "beneficiary_id")
	if !ok {
		return
	}
	filters := models.RequestFilters{
		Status:        queryString(c, "status"),
		Urgency:       queryString(c, "urgency"),
		BeneficiaryID: beneficiaryID,
	}
	filters.Page, filters.PageSize = pageQuery(c)

	list, total, err := h.requestService.GetRequests(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetRequests: Error from requestService.GetRequests")
		respondRequestError(c, err, "Failed to fetch requests.")
		return
	}
	utils.RespondPaginated(c, list, utils.NewPagination(filters.Page, filters.PageSize, total))
}

// GetRequestByID handles GET /beneficiaries/requests/:id.
func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "request")
	if !ok {
		return
	}

	req, err := h.requestService.GetRequestByID(c.Request.Context(), id)
	if err != nil {
		utils.LogError(err, "GetRequestByID: Error for ID "+utils.Int64ToStr(id))
		respondRequestError(c, err, "Failed to fetch request.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, req)
}

// UpdateRequestStatus handles PATCH /beneficiaries/requests/:id/status.
func (h *RequestHandler) UpdateRequestStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "request")
	if !ok {
		return
	}
	var req services.UpdateRequestStatusPayload
	if !bindJSON(c, &req, "UpdateRequestStatus") {
		return
	}

	updated, err := h.requestService.UpdateRequestStatus(c.Request.Context(), id, req)
	if err != nil {
		utils.LogError(err, "UpdateRequestStatus: Error for ID "+utils.Int64ToStr(id))
		respondRequestError(c, err, "Failed to update request status.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, updated)
}

// DeleteRequest handles DELETE /beneficiaries/requests/:id.
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "request")
	if !ok {
		return
	}

	if err := h.requestService.DeleteRequest(c.Request.Context(), id); err != nil {
		utils.LogError(err, "DeleteRequest: Error for ID "+utils.Int64ToStr(id))
		respondRequestError(c, err, "Failed to delete request.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Request deleted successfully.")
}
