package allocation

// StockStatus is derived from quantity and threshold; it is never stored.
type StockStatus string

const (
	StatusNoStock     StockStatus = "No Stock"
	StatusCritical    StockStatus = "Critical"
	StatusLowStock    StockStatus = "Low Stock"
	StatusAvailable   StockStatus = "Available"
	StatusOverstocked StockStatus = "Overstocked"
)

// AllStockStatuses lists statuses from empty to overstocked.
var AllStockStatuses = []StockStatus{StatusNoStock, StatusCritical, StatusLowStock, StatusAvailable, StatusOverstocked}

// Classify maps a stock quantity onto a status. Negative quantities count as no stock.
func Classify(qty int, t Threshold) StockStatus {
	switch {
	case qty <= 0:
		return StatusNoStock
	case qty < t.Critical:
		return StatusCritical
	case qty < t.Reorder:
		return StatusLowStock
	case qty <= t.Max:
		return StatusAvailable
	default:
		return StatusOverstocked
	}
}

// ParseStockStatus accepts the display form, e.g. "Low Stock".
func ParseStockStatus(s string) (StockStatus, bool) {
	for _, st := range AllStockStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}
