package handlers

import (
	"relief_backend/internal/models"
	"relief_backend/internal/services"
	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

var movementTypes = map[string]bool{
	models.MovementInitial:      true,
	models.MovementAdjustment:   true,
	models.MovementDistribution: true,
}

// InventoryMovementHandler serves the stock movement ledger.
type InventoryMovementHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(is services.InventoryService) *InventoryMovementHandler {
	return &InventoryMovementHandler{inventoryService: is}
}

// GetInventoryMovements handles GET /inventory/movements.
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	inventoryID, ok := queryInt64(c, "inventory_id")
	if !ok {
		return
	}
	movementType := queryString(c, "movement_type")
	if movementType != nil && !movementTypes[*movementType] {
		utils.RespondValidationFailed(c, "movement_type must be one of initial, adjustment, distribution")
		return
	}
	filters := models.MovementFilters{InventoryID: inventoryID, MovementType: movementType}
	filters.Page, filters.PageSize = pageQuery(c)

	movements, total, err := h.inventoryService.GetMovements(c.Request.Context(), filters)
	if err != nil {
		utils.LogError(err, "GetInventoryMovements: Error from inventoryService.GetMovements")
		utils.RespondInternalError(c, "Failed to fetch inventory movements.")
		return
	}
	utils.RespondPaginated(c, movements, utils.NewPagination(filters.Page, filters.PageSize, total))
}
