package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warningCodes(ws []Warning) []WarningCode {
	codes := make([]WarningCode, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestBuild_EndToEndRice(t *testing.T) {
	// GIVEN: Brgy 12 Family requests 50 Rice (10kg) for 5 people, 200 in stock
	// WHEN: the optimizer recommendation is used as the allowance
	// THEN: one Draft plan item of 50 valued at 50 x unit value
	req := Request{
		ID: 12, BeneficiaryName: "Brgy 12 Family", Urgency: UrgencyHigh, IndividualsServed: 5,
		Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Rice (10kg)", QuantityRequested: 50}},
	}
	unit := decimal.RequireFromString("550.75")
	inventory := []InventoryRecord{{ID: 100, ItemTypeID: 1, ItemTypeName: "Rice (10kg)", QuantityAvailable: 200, UnitValue: unit}}
	thresholds := DefaultThresholds()

	agg := Aggregate([]Request{req})
	rec := Optimize(agg[0], 200, thresholds.For("Rice (10kg)").Critical)
	require.Equal(t, 50, rec.Quantity)

	result := NewBuilder(thresholds).Build(PlanInput{
		Requests:   []Request{req},
		Allowances: map[string]int{"Rice (10kg)": rec.Quantity},
		Inventory:  inventory,
	})

	require.Len(t, result.Plans, 1)
	plan := result.Plans[0]
	assert.Equal(t, int64(12), plan.RequestID)
	require.Len(t, plan.Items, 1)
	assert.Equal(t, int64(100), plan.Items[0].InventoryID)
	assert.Equal(t, 50, plan.Items[0].Quantity)
	assert.True(t, plan.Items[0].AllocatedValue.Equal(unit.Mul(decimal.NewFromInt(50))))
	assert.True(t, plan.TotalValue.Equal(decimal.RequireFromString("27537.5")))
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 200, inventory[0].QuantityAvailable, "caller snapshot must not be mutated")
}

func TestBuild_ShortageSkipsItemWithoutSplitting(t *testing.T) {
	req := Request{
		ID: 1, BeneficiaryName: "A", Urgency: UrgencyLow, IndividualsServed: 4,
		Items: []RequestItem{
			{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 30},
			{ItemTypeID: 2, ItemTypeName: "Towel", QuantityRequested: 4},
		},
	}
	inventory := []InventoryRecord{
		{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 20, UnitValue: decimal.NewFromInt(300)},
		{ID: 11, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 20, UnitValue: decimal.NewFromInt(300)},
		{ID: 12, ItemTypeID: 2, ItemTypeName: "Towel", QuantityAvailable: 100, UnitValue: decimal.NewFromInt(90)},
	}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{Requests: []Request{req}, Inventory: inventory})

	require.Len(t, result.Plans, 1)
	require.Len(t, result.Plans[0].Items, 1)
	assert.Equal(t, "Towel", result.Plans[0].Items[0].ItemTypeName)
	assert.Contains(t, warningCodes(result.Warnings), WarnShortage)
}

func TestBuild_NeverOvercommitsARecord(t *testing.T) {
	// Two requests compete for 60 units; the second no longer fits.
	reqs := []Request{
		{ID: 1, BeneficiaryName: "A", IndividualsServed: 10, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 40}}},
		{ID: 2, BeneficiaryName: "B", IndividualsServed: 10, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 40}}},
	}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 60, UnitValue: decimal.NewFromInt(1)}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{Requests: reqs, Inventory: inventory})

	require.Len(t, result.Plans, 1)
	assert.Equal(t, int64(1), result.Plans[0].RequestID)

	committed := 0
	for _, p := range result.Plans {
		for _, it := range p.Items {
			committed += it.Quantity
		}
	}
	assert.LessOrEqual(t, committed, 60)
}

func TestBuild_AllowanceSplitProportionally(t *testing.T) {
	// GIVEN: an allowance of 10 shared by 1, 1 and 1 individuals
	// THEN: largest remainder gives 4/3/3 with the tie going to the first request
	reqs := []Request{
		{ID: 1, BeneficiaryName: "A", IndividualsServed: 1, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 9}}},
		{ID: 2, BeneficiaryName: "B", IndividualsServed: 1, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 9}}},
		{ID: 3, BeneficiaryName: "C", IndividualsServed: 1, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 9}}},
	}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 500, UnitValue: decimal.NewFromInt(1)}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{
		Requests:   reqs,
		Allowances: map[string]int{"blanket": 10},
		Inventory:  inventory,
	})

	require.Len(t, result.Plans, 3)
	assert.Equal(t, 4, result.Plans[0].Items[0].Quantity)
	assert.Equal(t, 3, result.Plans[1].Items[0].Quantity)
	assert.Equal(t, 3, result.Plans[2].Items[0].Quantity)
}

func TestBuild_AllowanceWeightedByIndividuals(t *testing.T) {
	reqs := []Request{
		{ID: 1, BeneficiaryName: "A", IndividualsServed: 3, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 10}}},
		{ID: 2, BeneficiaryName: "B", IndividualsServed: 1, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 10}}},
	}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 500, UnitValue: decimal.NewFromInt(1)}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{
		Requests:   reqs,
		Allowances: map[string]int{"Blanket": 8},
		Inventory:  inventory,
	})

	require.Len(t, result.Plans, 2)
	assert.Equal(t, 6, result.Plans[0].Items[0].Quantity)
	assert.Equal(t, 2, result.Plans[1].Items[0].Quantity)
}

func TestBuild_ZeroAllowanceYieldsNoPlan(t *testing.T) {
	req := Request{ID: 5, BeneficiaryName: "A", IndividualsServed: 2, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 2}}}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 50}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{
		Requests:   []Request{req},
		Allowances: map[string]int{"Blanket": 0},
		Inventory:  inventory,
	})

	assert.Empty(t, result.Plans)
	assert.Equal(t, []WarningCode{WarnNothingAllocated}, warningCodes(result.Warnings))
}

func TestBuild_NameFallbackIsReported(t *testing.T) {
	req := Request{ID: 1, BeneficiaryName: "A", IndividualsServed: 2, Items: []RequestItem{{ItemTypeID: 99, ItemTypeName: "Blanket", QuantityRequested: 2}}}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 7, ItemTypeName: "blanket", QuantityAvailable: 80}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{Requests: []Request{req}, Inventory: inventory})

	require.Len(t, result.Plans, 1)
	assert.Equal(t, int64(10), result.Plans[0].Items[0].InventoryID)
	assert.Equal(t, []WarningCode{WarnNameFallbackMatch}, warningCodes(result.Warnings))
}

func TestBuild_NoInventoryMatch(t *testing.T) {
	req := Request{ID: 1, BeneficiaryName: "A", IndividualsServed: 2, Items: []RequestItem{{ItemTypeID: 99, ItemTypeName: "Generator", QuantityRequested: 1}}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{Requests: []Request{req}})

	assert.Empty(t, result.Plans)
	assert.Equal(t, []WarningCode{WarnNoInventoryMatch}, warningCodes(result.Warnings))
}

func TestBuild_AdvisoryThresholdWarnings(t *testing.T) {
	thresholds := ThresholdTable{"Blanket": {Critical: 10, Reorder: 20, Max: 100}}

	// 15 in stock, 8 planned: safe is 5, stock ends at 7
	req := Request{ID: 1, BeneficiaryName: "A", IndividualsServed: 8, Items: []RequestItem{{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 8}}}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 15}}

	result := NewBuilder(thresholds).Build(PlanInput{Requests: []Request{req}, Inventory: inventory})

	require.Len(t, result.Plans, 1, "advisories never block")
	assert.ElementsMatch(t, []WarningCode{WarnExceedsSafeQuantity, WarnBelowCriticalAfter}, warningCodes(result.Warnings))
	assert.Contains(t, result.Plans[0].Items[0].Notes, string(WarnBelowCriticalAfter))

	// already below critical before distribution
	inventory[0].QuantityAvailable = 9
	req.Items[0].QuantityRequested = 1
	result = NewBuilder(thresholds).Build(PlanInput{Requests: []Request{req}, Inventory: inventory})
	require.Len(t, result.Plans, 1)
	assert.Contains(t, warningCodes(result.Warnings), WarnAlreadyBelowThreshold)
}

func TestBuild_DuplicateLinesAreMerged(t *testing.T) {
	req := Request{ID: 1, BeneficiaryName: "A", IndividualsServed: 2, Items: []RequestItem{
		{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 2},
		{ItemTypeID: 1, ItemTypeName: "Blanket", QuantityRequested: 3},
	}}
	inventory := []InventoryRecord{{ID: 10, ItemTypeID: 1, ItemTypeName: "Blanket", QuantityAvailable: 200}}

	result := NewBuilder(DefaultThresholds()).Build(PlanInput{Requests: []Request{req}, Inventory: inventory})

	require.Len(t, result.Plans, 1)
	require.Len(t, result.Plans[0].Items, 1)
	assert.Equal(t, 5, result.Plans[0].Items[0].Quantity)
}

func TestAvailableStock_LargestMatchingRecord(t *testing.T) {
	stock := []InventoryRecord{
		{ID: 1, ItemTypeID: 7, ItemTypeName: "Rice (10kg)", QuantityAvailable: 40},
		{ID: 2, ItemTypeID: 7, ItemTypeName: "Rice (10kg)", QuantityAvailable: 120},
		{ID: 3, ItemTypeID: 9, ItemTypeName: "Blanket", QuantityAvailable: 500},
	}

	qty, ok := AvailableStock(stock, AggregatedItem{ItemTypeID: 7, ItemTypeName: "Rice (10kg)"})
	assert.True(t, ok)
	assert.Equal(t, 120, qty)

	qty, ok = AvailableStock(stock, AggregatedItem{ItemTypeName: "blanket"})
	assert.True(t, ok, "name fallback should match")
	assert.Equal(t, 500, qty)

	_, ok = AvailableStock(stock, AggregatedItem{ItemTypeID: 99, ItemTypeName: "Tent"})
	assert.False(t, ok)
}
