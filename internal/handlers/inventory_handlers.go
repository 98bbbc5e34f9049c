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

// InventoryHandler serves stock records, categories and item types.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

func respondInventoryError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, services.ErrInventoryItemNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", err.Error()))
	} else if errors.Is(err, services.ErrItemTypeNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Item type not found.", err.Error()))
	} else if errors.Is(err, services.ErrInventoryItemInUse) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Inventory item is used by a distribution plan.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
	} else {
		utils.RespondInternalError(c, fallback)
	}
}

// GetCategories handles GET /inventory/categories.
func (h *InventoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.inventoryService.GetCategories(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetCategories: Error from inventoryService.GetCategories")
		utils.RespondInternalError(c, "Failed to fetch categories.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, categories)
}

// GetItemTypes handles GET /inventory/item-types, optionally by category_id.
func (h *InventoryHandler) GetItemTypes(c *gin.Context) {
	categoryID, ok := queryInt64(c, "category_id")
	if !ok {
		return
	}
	itemTypes, err := h.inventoryService.GetItemTypes(c.Request.Context(), categoryID)
	if err != nil {
		utils.LogError(err, "GetItemTypes: Error from inventoryService.GetItemTypes")
		utils.RespondInternalError(c, "Failed to fetch item types.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, itemTypes)
}

// CreateInventoryItem handles POST /inventory.
func (h *InventoryHandler) CreateInventoryItem(c *gin.Context) {
	var req services.InventoryItemPayload
	if !bindJSON(c, &req, "CreateInventoryItem") {
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req, middleware.UserIDPtr(c))
	if err != nil {
		utils.LogError(err, "CreateInventoryItem: Error from inventoryService.CreateItem")
		respondInventoryError(c, err, "Failed to create inventory item.")
		return
	}
	utils.RespondSuccess(c, http.StatusCreated, item)
}

// GetInventoryItems handles GET /inventory with category, item type, status and search filters.
func (h *InventoryHandler) GetInventoryItems(c *gin.Context) {
	categoryID, ok := queryInt64(c, "category_id")
	if !ok {
		return
	}
	itemTypeID, ok := queryInt64(c, "itemtype_id")
	if !ok {
		return
	}
	filters := models.InventoryFilters{
		CategoryID: categoryID,
		ItemTypeID: itemTypeID,
		Status:     queryString(c, "status"),
		Search:     queryString(c, "search"),
	}
	filters.Page, filters.PageSize = pageQuery(c)

	items, total, err := h.inventoryService.GetItems(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetInventoryItems: Error from inventoryService.GetItems")
		respondInventoryError(c, err, "Failed to fetch inventory.")
		return
	}
	utils.RespondPaginated(c, items, utils.NewPagination(filters.Page, filters.PageSize, total))
}

// GetInventoryItemByID handles GET /inventory/:id.
func (h *InventoryHandler) GetInventoryItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "inventory item")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItemByID(c.Request.Context(), id)
	if err != nil {
		utils.LogError(err, "GetInventoryItemByID: Error for ID "+utils.Int64ToStr(id))
		respondInventoryError(c, err, "Failed to fetch inventory item.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, item)
}

// UpdateInventoryItem handles PUT /inventory/:id.
func (h *InventoryHandler) UpdateInventoryItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "inventory item")
	if !ok {
		return
	}
	var req services.InventoryItemPayload
	if !bindJSON(c, &req, "UpdateInventoryItem") {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, req, middleware.UserIDPtr(c))
	if err != nil {
		utils.LogError(err, "UpdateInventoryItem: Error for ID "+utils.Int64ToStr(id))
		respondInventoryError(c, err, "Failed to update inventory item.")
		return
	}
	utils.RespondSuccess(c, http.StatusOK, item)
}

// DeleteInventoryItem handles DELETE /inventory/:id.
func (h *InventoryHandler) DeleteInventoryItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "inventory item")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), id); err != nil {
		utils.LogError(err, "DeleteInventoryItem: Error for ID "+utils.Int64ToStr(id))
		respondInventoryError(c, err, "Failed to delete inventory item.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Inventory item deleted successfully.")
}
