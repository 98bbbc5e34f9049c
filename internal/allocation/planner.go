package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// WarningCode classifies an advisory produced while building plans.
type WarningCode string

const (
	WarnShortage              WarningCode = "shortage"
	WarnNoInventoryMatch      WarningCode = "no_inventory_match"
	WarnNameFallbackMatch     WarningCode = "name_fallback_match"
	WarnNothingAllocated      WarningCode = "nothing_allocated"
	WarnBelowCriticalAfter    WarningCode = "below_critical_after"
	WarnExceedsSafeQuantity   WarningCode = "exceeds_safe_quantity"
	WarnAlreadyBelowThreshold WarningCode = "already_below_threshold"
)

// Warning never blocks a plan; it is returned to the caller and logged.
type Warning struct {
	RequestID    int64       `json:"request_id"`
	ItemTypeName string      `json:"itemtype_name"`
	Code         WarningCode `json:"code"`
	Message      string      `json:"message"`
}

// InventoryRecord is one row of the inventory snapshot.
type InventoryRecord struct {
	ID                int64           `json:"id"`
	ItemTypeID        int64           `json:"itemtype_id"`
	ItemTypeName      string          `json:"itemtype_name"`
	QuantityAvailable int             `json:"quantity_available"`
	UnitValue         decimal.Decimal `json:"unit_value"`
}

// PlanInput is everything Build needs. Allowances are keyed by item name;
// items without an allowance are planned at their requested quantity.
type PlanInput struct {
	Requests   []Request
	Allowances map[string]int
	Inventory  []InventoryRecord
}

// PlanItem is one inventory draw of a plan.
type PlanItem struct {
	InventoryID    int64           `json:"inventory_id"`
	ItemTypeID     int64           `json:"itemtype_id"`
	ItemTypeName   string          `json:"itemtype_name"`
	Quantity       int             `json:"quantity"`
	UnitValue      decimal.Decimal `json:"unit_value"`
	AllocatedValue decimal.Decimal `json:"allocated_value"`
	Notes          string          `json:"notes,omitempty"`
}

// RequestPlan is a Draft plan for one request.
type RequestPlan struct {
	RequestID       int64           `json:"request_id"`
	BeneficiaryName string          `json:"beneficiary_name"`
	Items           []PlanItem      `json:"items"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// BuildResult holds the plans and every warning raised while building them.
type BuildResult struct {
	Plans    []RequestPlan `json:"plans"`
	Warnings []Warning     `json:"warnings"`
}

// Builder turns selected requests into Draft plans against an inventory snapshot.
type Builder struct {
	thresholds ThresholdTable
}

// NewBuilder returns a Builder using thresholds for the advisory checks.
func NewBuilder(thresholds ThresholdTable) *Builder {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &Builder{thresholds: thresholds}
}

// Build plans every request in order. The snapshot is copied and decremented as
// items are planned, so no record is committed beyond its quantity. Requests
// with no satisfiable item produce no plan.
func (b *Builder) Build(in PlanInput) BuildResult {
	stock := make([]InventoryRecord, len(in.Inventory))
	copy(stock, in.Inventory)

	shares := splitAllowances(in.Requests, in.Allowances)
	var result BuildResult

	for ri, req := range in.Requests {
		plan := RequestPlan{RequestID: req.ID, BeneficiaryName: req.BeneficiaryName, TotalValue: decimal.Zero}

		for _, line := range mergeLines(req.Items) {
			key := itemKey(line.ItemTypeName)
			qty := shares[ri][key]
			warn := func(code WarningCode, format string, args ...interface{}) {
				result.Warnings = append(result.Warnings, Warning{
					RequestID:    req.ID,
					ItemTypeName: line.ItemTypeName,
					Code:         code,
					Message:      fmt.Sprintf(format, args...),
				})
			}

			if qty <= 0 {
				warn(WarnNothingAllocated, "no quantity allocated to this request")
				continue
			}

			candidates, byName := matchInventory(stock, line)
			if len(candidates) == 0 {
				warn(WarnNoInventoryMatch, "no inventory record for item type %d", line.ItemTypeID)
				continue
			}
			if byName {
				warn(WarnNameFallbackMatch, "matched inventory by name, item type id %d not found", line.ItemTypeID)
			}

			pos := -1
			for _, c := range candidates {
				if stock[c].QuantityAvailable >= qty {
					pos = c
					break
				}
			}
			if pos < 0 {
				warn(WarnShortage, "need %d, largest record holds %d", qty, largestQuantity(stock, candidates))
				continue
			}

			rec := &stock[pos]
			t := b.thresholds.For(rec.ItemTypeName)
			before := rec.QuantityAvailable
			after := before - qty
			var notes []string
			if before < t.Critical {
				warn(WarnAlreadyBelowThreshold, "stock %d already below critical %d", before, t.Critical)
				notes = append(notes, string(WarnAlreadyBelowThreshold))
			}
			if safe := SafeToDistribute(before, t.Critical); qty > safe {
				warn(WarnExceedsSafeQuantity, "quantity %d exceeds safe-to-distribute %d", qty, safe)
				notes = append(notes, string(WarnExceedsSafeQuantity))
			}
			if after < t.Critical {
				warn(WarnBelowCriticalAfter, "stock after distribution %d below critical %d", after, t.Critical)
				notes = append(notes, string(WarnBelowCriticalAfter))
			}
			rec.QuantityAvailable = after

			value := rec.UnitValue.Mul(decimal.NewFromInt(int64(qty)))
			plan.Items = append(plan.Items, PlanItem{
				InventoryID:    rec.ID,
				ItemTypeID:     rec.ItemTypeID,
				ItemTypeName:   rec.ItemTypeName,
				Quantity:       qty,
				UnitValue:      rec.UnitValue,
				AllocatedValue: value,
				Notes:          strings.Join(notes, ", "),
			})
			plan.TotalValue = plan.TotalValue.Add(value)
		}

		if len(plan.Items) > 0 {
			result.Plans = append(result.Plans, plan)
		}
	}
	return result
}

// mergeLines sums duplicate item lines of one request, keeping first-seen order.
func mergeLines(items []RequestItem) []RequestItem {
	index := make(map[string]int)
	var out []RequestItem
	for _, it := range items {
		key := itemKey(it.ItemTypeName)
		if pos, ok := index[key]; ok {
			out[pos].QuantityRequested += it.QuantityRequested
			continue
		}
		index[key] = len(out)
		out = append(out, it)
	}
	return out
}

// matchInventory returns snapshot positions for line, by item type id first.
// The bool is true when only the name matched.
func matchInventory(stock []InventoryRecord, line RequestItem) ([]int, bool) {
	var byID, byName []int
	key := itemKey(line.ItemTypeName)
	for i, rec := range stock {
		if line.ItemTypeID != 0 && rec.ItemTypeID == line.ItemTypeID {
			byID = append(byID, i)
		} else if key != "" && itemKey(rec.ItemTypeName) == key {
			byName = append(byName, i)
		}
	}
	if len(byID) > 0 {
		return byID, false
	}
	return byName, len(byName) > 0
}

// AvailableStock is the largest single record that would serve item, since a
// plan line never spans records. matched is false when no record matches.
func AvailableStock(stock []InventoryRecord, item AggregatedItem) (qty int, matched bool) {
	positions, _ := matchInventory(stock, RequestItem{ItemTypeID: item.ItemTypeID, ItemTypeName: item.ItemTypeName})
	if len(positions) == 0 {
		return 0, false
	}
	return largestQuantity(stock, positions), true
}

func largestQuantity(stock []InventoryRecord, positions []int) int {
	largest := 0
	for _, p := range positions {
		largest = max(largest, stock[p].QuantityAvailable)
	}
	return largest
}

// splitAllowances returns, per request index, the planned quantity per item key.
// An allowance is shared in proportion to individuals served using the largest
// remainder method; equal remainders go to the earlier request.
func splitAllowances(requests []Request, allowances map[string]int) []map[string]int {
	shares := make([]map[string]int, len(requests))
	type holder struct {
		req       int
		weight    int
		requested int
	}
	holders := make(map[string][]holder)
	var order []string

	for i, req := range requests {
		shares[i] = make(map[string]int)
		for _, line := range mergeLines(req.Items) {
			key := itemKey(line.ItemTypeName)
			shares[i][key] = line.QuantityRequested
			if _, ok := holders[key]; !ok {
				order = append(order, key)
			}
			holders[key] = append(holders[key], holder{req: i, weight: req.IndividualsServed, requested: line.QuantityRequested})
		}
	}

	normalized := make(map[string]int, len(allowances))
	for name, qty := range allowances {
		normalized[itemKey(name)] = qty
	}

	for _, key := range order {
		allowance, ok := normalized[key]
		if !ok {
			continue
		}
		hs := holders[key]
		if allowance <= 0 {
			for _, h := range hs {
				shares[h.req][key] = 0
			}
			continue
		}

		weights := make([]int, len(hs))
		totalWeight := 0
		for i, h := range hs {
			weights[i] = max(h.weight, 0)
			totalWeight += weights[i]
		}
		if totalWeight == 0 {
			for i, h := range hs {
				weights[i] = max(h.requested, 0)
				totalWeight += weights[i]
			}
		}
		if totalWeight == 0 {
			for i := range weights {
				weights[i] = 1
			}
			totalWeight = len(weights)
		}

		remainders := make([]int, len(hs))
		assigned := 0
		for i, h := range hs {
			n := allowance * weights[i]
			shares[h.req][key] = n / totalWeight
			remainders[i] = n % totalWeight
			assigned += n / totalWeight
		}

		idx := make([]int, len(hs))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return remainders[idx[a]] > remainders[idx[b]] })
		for i := 0; i < allowance-assigned; i++ {
			shares[hs[idx[i]].req][key]++
		}
	}
	return shares
}
