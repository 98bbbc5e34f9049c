package allocation

import (
	"sort"
	"strings"
)

// Urgency of a beneficiary request.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

// Priority orders urgencies: Critical 3, High 2, Medium 1, Low 0.
// Unknown values rank below Low.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	case UrgencyLow:
		return 0
	}
	return -1
}

// Valid reports whether u is one of the four known levels.
func (u Urgency) Valid() bool {
	return u.Priority() >= 0
}

// RequestItem is one requested line of a beneficiary request.
type RequestItem struct {
	ItemTypeID        int64  `json:"itemtype_id"`
	ItemTypeName      string `json:"itemtype_name"`
	QuantityRequested int    `json:"quantity_requested"`
}

// Request is the subset of a beneficiary request the engine needs.
type Request struct {
	ID                int64         `json:"id"`
	BeneficiaryID     int64         `json:"beneficiary_id"`
	BeneficiaryName   string        `json:"beneficiary_name"`
	Urgency           Urgency       `json:"urgency"`
	IndividualsServed int           `json:"individuals_served"`
	Items             []RequestItem `json:"items"`
}

// RequestContext records how one request contributed to an aggregated item.
type RequestContext struct {
	RequestID         int64   `json:"request_id"`
	BeneficiaryName   string  `json:"beneficiary_name"`
	Urgency           Urgency `json:"urgency"`
	IndividualsServed int     `json:"individuals_served"`
	QuantityRequested int     `json:"quantity_requested"`
}

// AggregatedItem is the demand for one item type across the selected requests.
type AggregatedItem struct {
	ItemTypeID             int64            `json:"itemtype_id"`
	ItemTypeName           string           `json:"itemtype_name"`
	TotalRequested         int              `json:"total_requested"`
	TotalIndividualsServed int              `json:"total_individuals_served"`
	UrgencyLevels          []Urgency        `json:"urgency_levels"`
	MaxUrgency             Urgency          `json:"max_urgency"`
	UniqueBeneficiaries    []string         `json:"unique_beneficiaries"`
	Requests               []RequestContext `json:"requests"`
}

func itemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Aggregate folds requests into one entry per item name.
//
// Requests are visited in slice order and items in array order. The result is
// sorted by max urgency, highest first; entries with equal urgency keep the
// order in which their item was first seen.
func Aggregate(requests []Request) []AggregatedItem {
	index := make(map[string]int)
	var items []AggregatedItem
	seenBeneficiary := make(map[string]map[string]bool)

	for _, req := range requests {
		for _, it := range req.Items {
			key := itemKey(it.ItemTypeName)
			pos, ok := index[key]
			if !ok {
				pos = len(items)
				index[key] = pos
				items = append(items, AggregatedItem{
					ItemTypeID:   it.ItemTypeID,
					ItemTypeName: strings.TrimSpace(it.ItemTypeName),
				})
				seenBeneficiary[key] = make(map[string]bool)
			}
			agg := &items[pos]
			if agg.ItemTypeID == 0 {
				agg.ItemTypeID = it.ItemTypeID
			}
			agg.TotalRequested += it.QuantityRequested
			agg.TotalIndividualsServed += req.IndividualsServed
			agg.UrgencyLevels = append(agg.UrgencyLevels, req.Urgency)
			if !seenBeneficiary[key][req.BeneficiaryName] {
				seenBeneficiary[key][req.BeneficiaryName] = true
				agg.UniqueBeneficiaries = append(agg.UniqueBeneficiaries, req.BeneficiaryName)
			}
			agg.Requests = append(agg.Requests, RequestContext{
				RequestID:         req.ID,
				BeneficiaryName:   req.BeneficiaryName,
				Urgency:           req.Urgency,
				IndividualsServed: req.IndividualsServed,
				QuantityRequested: it.QuantityRequested,
			})
		}
	}

	for i := range items {
		items[i].MaxUrgency = maxUrgency(items[i].UrgencyLevels)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].MaxUrgency.Priority() > items[j].MaxUrgency.Priority()
	})
	return items
}

func maxUrgency(levels []Urgency) Urgency {
	var best Urgency
	for _, u := range levels {
		if best == "" || u.Priority() > best.Priority() {
			best = u
		}
	}
	return best
}
