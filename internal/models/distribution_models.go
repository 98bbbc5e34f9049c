package models

import (
	"time"

	"relief_backend/internal/allocation"

	"github.com/shopspring/decimal"
)

// DistributionPlan is a planned hand-out of inventory for one request.
type DistributionPlan struct {
	ID              int64                  `json:"id" db:"id"`
	RequestID       int64                  `json:"request_id" db:"request_id"`
	BeneficiaryName string                 `json:"beneficiary_name,omitempty"`
	Status          allocation.PlanStatus  `json:"status" db:"status"`
	PlannedDate     *time.Time             `json:"planned_date,omitempty" db:"planned_date"`
	TotalValue      decimal.Decimal        `json:"total_value" db:"total_value"`
	Remarks         *string                `json:"remarks,omitempty" db:"remarks"`
	CreatedBy       *int64                 `json:"created_by,omitempty" db:"created_by"`
	ApprovedBy      *int64                 `json:"approved_by,omitempty" db:"approved_by"`
	ExecutedBy      *int64                 `json:"executed_by,omitempty" db:"executed_by"`
	ApprovedAt      *time.Time             `json:"approved_at,omitempty" db:"approved_at"`
	ExecutedAt      *time.Time             `json:"executed_at,omitempty" db:"executed_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
	Items           []DistributionPlanItem `json:"items"`
}

// DistributionPlanItem is one inventory draw of a plan.
type DistributionPlanItem struct {
	ID             int64           `json:"id" db:"id"`
	PlanID         int64           `json:"plan_id" db:"plan_id"`
	InventoryID    int64           `json:"inventory_id" db:"inventory_id"`
	ItemTypeName   string          `json:"itemtype_name"`
	Quantity       int             `json:"quantity" db:"quantity"`
	AllocatedValue decimal.Decimal `json:"allocated_value" db:"allocated_value"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
}

// PlanFilters defines the available filters for querying plans.
type PlanFilters struct {
	Status    *string `form:"status"`
	RequestID *int64  `form:"request_id"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
