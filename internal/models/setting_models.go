package models

import (
	"time"

	"relief_backend/internal/allocation"
)

// ThresholdOverride is a row of safety_thresholds that replaces a built-in entry.
type ThresholdOverride struct {
	ID           int64     `json:"id" db:"id"`
	ItemTypeName string    `json:"itemtype_name" db:"itemtype_name"`
	Critical     int       `json:"critical" db:"critical_level"`
	Reorder      int       `json:"reorder" db:"reorder_level"`
	Max          int       `json:"max" db:"max_level"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveThreshold is one entry of the merged table as served to clients.
type EffectiveThreshold struct {
	ItemTypeName string `json:"itemtype_name"`
	allocation.Threshold
	Overridden bool `json:"overridden"`
}
