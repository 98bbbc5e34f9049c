package models

import "github.com/shopspring/decimal"

// InventoryStats holds the totals served by /api/inventory/stats.
type InventoryStats struct {
	TotalRecords  int                 `json:"total_records"`
	TotalQuantity int                 `json:"total_quantity"`
	TotalValue    decimal.Decimal     `json:"total_value"`
	StatusCounts  map[string]int      `json:"status_counts"`
	Categories    []CategoryStockStat `json:"categories"`
}

// CategoryStockStat aggregates stock per category.
type CategoryStockStat struct {
	Category      string          `json:"category"`
	Records       int             `json:"records"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}
