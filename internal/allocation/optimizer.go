package allocation

import "math"

// Reason explains which rule produced a recommendation.
type Reason string

const (
	ReasonNoIndividualsData Reason = "no_individuals_data"
	ReasonLimitedStock      Reason = "limited_stock"
	ReasonExact             Reason = "exact"
	ReasonRoundedUp         Reason = "rounded_up"
	ReasonRoundedDown       Reason = "rounded_down"
	ReasonMinimumOne        Reason = "minimum_one"
	ReasonSurplusBonus      Reason = "surplus_bonus"
)

// maxRoundUpFactor bounds how far rounding up may exceed the per-person ask.
const maxRoundUpFactor = 1.5

// Recommendation is an advisory quantity for one aggregated item.
type Recommendation struct {
	Quantity           int     `json:"quantity"`
	Reason             Reason  `json:"reason"`
	RequestedPerPerson float64 `json:"requested_per_person"`
	PerPerson          int     `json:"per_person"`
	SafeStock          int     `json:"safe_stock"`
}

// Optimize proposes a distribution quantity for item given the matched stock
// and its critical threshold. The result is never negative.
func Optimize(item AggregatedItem, currentStock, critical int) Recommendation {
	total := item.TotalRequested
	individuals := item.TotalIndividualsServed
	safe := SafeToDistribute(currentStock, critical)
	rec := Recommendation{SafeStock: safe}

	if total <= 0 {
		rec.Reason = ReasonExact
		return rec
	}

	if individuals <= 0 {
		rec.Quantity = min(total, safe)
		rec.Reason = ReasonNoIndividualsData
		return rec
	}

	perPerson := float64(total) / float64(individuals)
	rec.RequestedPerPerson = perPerson

	if currentStock < total {
		fair := int(math.Floor(math.Min(perPerson, float64(safe)/float64(individuals))))
		rec.PerPerson = max(fair, 0)
		rec.Quantity = rec.PerPerson * individuals
		rec.Reason = ReasonLimitedStock
		return rec
	}

	var pp int
	if total%individuals == 0 {
		pp = total / individuals
		rec.Reason = ReasonExact
	} else {
		floorPP := total / individuals
		ceilPP := floorPP + 1
		if ceilPP*individuals <= safe && float64(ceilPP) <= maxRoundUpFactor*perPerson {
			pp = ceilPP
			rec.Reason = ReasonRoundedUp
		} else {
			pp = floorPP
			rec.Reason = ReasonRoundedDown
		}
	}

	if pp == 0 && safe >= individuals {
		pp = 1
		rec.Reason = ReasonMinimumOne
	}

	if currentStock > 3*total && perPerson < 2 {
		bonus := min(safe/individuals, int(math.Ceil(perPerson*2)))
		if bonus > pp {
			pp = bonus
			rec.Reason = ReasonSurplusBonus
		}
	}

	rec.PerPerson = max(pp, 0)
	rec.Quantity = rec.PerPerson * individuals
	return rec
}
