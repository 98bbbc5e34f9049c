package models

import (
	"time"

	"relief_backend/internal/allocation"

	"github.com/shopspring/decimal"
)

// Category groups item types, e.g. Food or Hygiene.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ItemType is a kind of relief good. Names are unique.
type ItemType struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	CategoryID   *int64    `json:"category_id,omitempty" db:"category_id"`
	CategoryName *string   `json:"category_name,omitempty"`
	Unit         *string   `json:"unit,omitempty" db:"unit"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// InventoryItem is a stock record of one item type at one location.
// Status is derived from the safety thresholds and never stored.
type InventoryItem struct {
	ID                int64                  `json:"id" db:"id"`
	ItemTypeID        int64                  `json:"itemtype_id" db:"itemtype_id"`
	ItemTypeName      string                 `json:"itemtype_name"`
	CategoryID        *int64                 `json:"category_id,omitempty"`
	Category          *string                `json:"category,omitempty"`
	QuantityAvailable int                    `json:"quantity_available" db:"quantity_available"`
	UnitValue         decimal.Decimal        `json:"unit_value" db:"unit_value"`
	Location          *string                `json:"location,omitempty" db:"location"`
	ExpirationDate    *time.Time             `json:"expiration_date,omitempty" db:"expiration_date"`
	Status            allocation.StockStatus `json:"status"`
	CreatedAt         time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at" db:"updated_at"`
}

// ToAllocation converts the item into a snapshot record for plan building.
func (i *InventoryItem) ToAllocation() allocation.InventoryRecord {
	return allocation.InventoryRecord{
		ID:                i.ID,
		ItemTypeID:        i.ItemTypeID,
		ItemTypeName:      i.ItemTypeName,
		QuantityAvailable: i.QuantityAvailable,
		UnitValue:         i.UnitValue,
	}
}

// InventoryFilters defines the available filters for listing inventory.
// Status is applied after classification, not in SQL.
type InventoryFilters struct {
	CategoryID *int64  `form:"category_id"`
	ItemTypeID *int64  `form:"itemtype_id"`
	Status     *string `form:"status"`
	Search     *string `form:"search"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

// Movement types recorded in the inventory ledger.
const (
	MovementInitial      = "initial"
	MovementAdjustment   = "adjustment"
	MovementDistribution = "distribution"
)

// InventoryMovement represents a change in stock for an inventory record
type InventoryMovement struct {
	ID              int64     `json:"id" db:"id"`
	InventoryID     int64     `json:"inventory_id" db:"inventory_id"`
	ItemTypeName    string    `json:"itemtype_name,omitempty"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reference       *string   `json:"reference,omitempty" db:"reference"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedBy       *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// MovementFilters defines the available filters for the movement ledger.
type MovementFilters struct {
	InventoryID  *int64  `form:"inventory_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
