package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequests() []Request {
	return []Request{
		{
			ID: 1, BeneficiaryName: "Brgy 12 Family", Urgency: UrgencyMedium, IndividualsServed: 5,
			Items: []RequestItem{
				{ItemTypeID: 1, ItemTypeName: "Rice (10kg)", QuantityRequested: 50},
				{ItemTypeID: 2, ItemTypeName: "Canned Sardines", QuantityRequested: 20},
			},
		},
		{
			ID: 2, BeneficiaryName: "St. Anne Parish", Urgency: UrgencyCritical, IndividualsServed: 40,
			Items: []RequestItem{
				{ItemTypeID: 3, ItemTypeName: "Blanket", QuantityRequested: 40},
				{ItemTypeID: 1, ItemTypeName: "Rice (10kg)", QuantityRequested: 80},
			},
		},
		{
			ID: 3, BeneficiaryName: "Brgy 12 Family", Urgency: UrgencyLow, IndividualsServed: 5,
			Items: []RequestItem{
				{ItemTypeID: 2, ItemTypeName: "Canned Sardines", QuantityRequested: 10},
			},
		},
	}
}

func findItem(t *testing.T, items []AggregatedItem, name string) AggregatedItem {
	t.Helper()
	for _, it := range items {
		if it.ItemTypeName == name {
			return it
		}
	}
	require.Failf(t, "item not aggregated", "%s", name)
	return AggregatedItem{}
}

func TestAggregate_Totals(t *testing.T) {
	items := Aggregate(sampleRequests())
	require.Len(t, items, 3)

	rice := findItem(t, items, "Rice (10kg)")
	assert.Equal(t, 130, rice.TotalRequested)
	assert.Equal(t, 45, rice.TotalIndividualsServed)
	assert.Equal(t, UrgencyCritical, rice.MaxUrgency)
	assert.Equal(t, []Urgency{UrgencyMedium, UrgencyCritical}, rice.UrgencyLevels)
	assert.Equal(t, []string{"Brgy 12 Family", "St. Anne Parish"}, rice.UniqueBeneficiaries)
	require.Len(t, rice.Requests, 2)
	assert.Equal(t, int64(2), rice.Requests[1].RequestID)
	assert.Equal(t, 80, rice.Requests[1].QuantityRequested)

	sardines := findItem(t, items, "Canned Sardines")
	assert.Equal(t, 30, sardines.TotalRequested)
	assert.Equal(t, 10, sardines.TotalIndividualsServed)
	assert.Equal(t, UrgencyMedium, sardines.MaxUrgency)
	assert.Equal(t, []string{"Brgy 12 Family"}, sardines.UniqueBeneficiaries)
}

func TestAggregate_TotalsCommuteOverSelectionOrder(t *testing.T) {
	reqs := sampleRequests()
	reversed := []Request{reqs[2], reqs[1], reqs[0]}

	forward := Aggregate(reqs)
	backward := Aggregate(reversed)

	for _, name := range []string{"Rice (10kg)", "Canned Sardines", "Blanket"} {
		f := findItem(t, forward, name)
		b := findItem(t, backward, name)
		assert.Equal(t, f.TotalRequested, b.TotalRequested, name)
		assert.Equal(t, f.TotalIndividualsServed, b.TotalIndividualsServed, name)
		assert.Equal(t, f.MaxUrgency, b.MaxUrgency, name)
	}
}

func TestAggregate_SortedByUrgencyTiesKeepFirstSeen(t *testing.T) {
	// GIVEN: Rice and Blanket both reach Critical; Rice is seen first
	// WHEN: aggregating
	// THEN: Rice precedes Blanket, and the Medium-only item comes last
	items := Aggregate(sampleRequests())

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.ItemTypeName
	}
	assert.Equal(t, []string{"Rice (10kg)", "Blanket", "Canned Sardines"}, names)

	// Reversing the selection flips which critical item is first seen.
	reqs := sampleRequests()
	items = Aggregate([]Request{reqs[1], reqs[0]})
	assert.Equal(t, "Blanket", items[0].ItemTypeName)
	assert.Equal(t, "Rice (10kg)", items[1].ItemTypeName)
}

func TestAggregate_NamesMatchCaseInsensitively(t *testing.T) {
	items := Aggregate([]Request{
		{ID: 1, BeneficiaryName: "A", Urgency: UrgencyHigh, IndividualsServed: 2,
			Items: []RequestItem{{ItemTypeName: "Blanket", QuantityRequested: 2}}},
		{ID: 2, BeneficiaryName: "B", Urgency: UrgencyLow, IndividualsServed: 3,
			Items: []RequestItem{{ItemTypeID: 3, ItemTypeName: " blanket", QuantityRequested: 3}}},
	})
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].TotalRequested)
	assert.Equal(t, int64(3), items[0].ItemTypeID)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestUrgencyPriority(t *testing.T) {
	assert.Equal(t, 3, UrgencyCritical.Priority())
	assert.Equal(t, 0, UrgencyLow.Priority())
	assert.False(t, Urgency("Urgent").Valid())
}
