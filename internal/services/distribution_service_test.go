package services

import (
	"context"
	"testing"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type distributionFixture struct {
	db      *fakeDB
	tx      *fakeTx
	svc     DistributionService
	rice    int64
	stock   int64
	request int64
}

// newDistributionFixture seeds Brgy 12 Family asking 50 x Rice (10kg) for 5
// people against a single record of 200 at 550.75.
func newDistributionFixture() distributionFixture {
	db := newFakeDB()
	tx := &fakeTx{db: db}
	f := distributionFixture{
		db:  db,
		tx:  tx,
		svc: NewDistributionService(db, db, db, db, newFakeThresholds(), tx),
	}
	f.rice = db.seedItemType("Rice (10kg)")
	f.stock = db.seedInventory(f.rice, 200, "550.75")
	family := db.seedBeneficiary("Brgy 12 Family")
	f.request = db.seedRequest(family, models.RequestApproved, allocation.UrgencyHigh, 5,
		models.RequestItem{ItemTypeID: f.rice, QuantityRequested: 50})
	return f
}

func (f distributionFixture) createDraft(t *testing.T) models.DistributionPlan {
	t.Helper()
	res, err := f.svc.CreatePlans(context.Background(), CreatePlansPayload{RequestIDs: []int64{f.request}}, ptr(int64(1)))
	require.NoError(t, err)
	require.Len(t, res.Plans, 1)
	return res.Plans[0]
}

func (f distributionFixture) setPlanStatus(id int64, st allocation.PlanStatus) {
	p := f.db.plans[id]
	p.Status = st
	f.db.plans[id] = p
}

func TestDistributionService_RecommendEndToEnd(t *testing.T) {
	f := newDistributionFixture()

	res, err := f.svc.Recommend(context.Background(), RecommendationPayload{RequestIDs: []int64{f.request, f.request}})

	require.NoError(t, err)
	assert.Equal(t, []int64{f.request}, res.RequestIDs, "duplicate ids are ignored")
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "Rice (10kg)", item.ItemTypeName)
	assert.Equal(t, 50, item.TotalRequested)
	assert.Equal(t, 200, item.CurrentStock)
	assert.True(t, item.InventoryMatched)
	assert.Equal(t, allocation.StatusAvailable, item.StockStatus)
	assert.Equal(t, 20, item.Threshold.Critical)
	assert.Equal(t, 50, item.Recommendation.Quantity)
	assert.Equal(t, allocation.ReasonExact, item.Recommendation.Reason)
}

func TestDistributionService_OnlyApprovedRequests(t *testing.T) {
	f := newDistributionFixture()
	pending := f.db.seedRequest(f.db.requests[f.request].BeneficiaryID, models.RequestPending, allocation.UrgencyLow, 1)
	ctx := context.Background()

	_, err := f.svc.Recommend(ctx, RecommendationPayload{RequestIDs: []int64{f.request, pending}})
	assert.ErrorIs(t, err, ErrRequestNotApproved)

	_, err = f.svc.CreatePlans(ctx, CreatePlansPayload{RequestIDs: []int64{424242}}, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDistributionService_CreatePlansEndToEnd(t *testing.T) {
	// GIVEN: the optimizer's 50 is used as the Rice allowance
	// WHEN: plans are created
	// THEN: one Draft plan of 50 x 550.75 is persisted and stock is untouched
	f := newDistributionFixture()

	res, err := f.svc.CreatePlans(context.Background(), CreatePlansPayload{
		RequestIDs:  []int64{f.request},
		Allowances:  map[string]int{"Rice (10kg)": 50},
		PlannedDate: ptr("2024-11-20"),
		Remarks:     ptr("Batch 1"),
	}, ptr(int64(9)))

	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Plans, 1)
	plan := res.Plans[0]
	assert.Equal(t, allocation.PlanDraft, plan.Status)
	assert.Equal(t, "Brgy 12 Family", plan.BeneficiaryName)
	assert.True(t, plan.TotalValue.Equal(mustDecimal("27537.5")))
	assert.Equal(t, "2024-11-20", plan.PlannedDate.Format("2006-01-02"))
	require.Len(t, plan.Items, 1)
	assert.Equal(t, f.stock, plan.Items[0].InventoryID)
	assert.Equal(t, 50, plan.Items[0].Quantity)
	assert.Equal(t, 200, f.db.inventory[f.stock].QuantityAvailable)
}

func TestDistributionService_NoPlanReturnsWarnings(t *testing.T) {
	f := newDistributionFixture()
	delete(f.db.inventory, f.stock)

	res, err := f.svc.CreatePlans(context.Background(), CreatePlansPayload{RequestIDs: []int64{f.request}}, nil)

	assert.ErrorIs(t, err, ErrNoPlansCreated)
	require.NotNil(t, res)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, allocation.WarnNoInventoryMatch, res.Warnings[0].Code)
	assert.Empty(t, f.db.plans)
}

func TestDistributionService_CreatePlansRejectsNegativeAllowance(t *testing.T) {
	f := newDistributionFixture()

	_, err := f.svc.CreatePlans(context.Background(), CreatePlansPayload{
		RequestIDs: []int64{f.request}, Allowances: map[string]int{"Rice (10kg)": -1},
	}, nil)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestDistributionService_StatusUpdates(t *testing.T) {
	f := newDistributionFixture()
	ctx := context.Background()
	plan := f.createDraft(t)

	_, err := f.svc.UpdatePlanStatus(ctx, plan.ID, UpdatePlanStatusPayload{Status: "Ongoing"}, nil)
	assert.ErrorIs(t, err, ErrInvalidPlanTransition, "Ongoing is only reachable through execute")

	_, err = f.svc.UpdatePlanStatus(ctx, plan.ID, UpdatePlanStatusPayload{Status: "Completed"}, nil)
	assert.ErrorIs(t, err, ErrInvalidPlanTransition)

	approved, err := f.svc.UpdatePlanStatus(ctx, plan.ID, UpdatePlanStatusPayload{Status: "approved"}, ptr(int64(4)))
	require.NoError(t, err)
	assert.Equal(t, allocation.PlanApproved, approved.Status)
	assert.Equal(t, int64(4), *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.UpdatePlanStatus(ctx, plan.ID, UpdatePlanStatusPayload{Status: "Shipped"}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDistributionService_ExecuteDrawsStock(t *testing.T) {
	f := newDistributionFixture()
	ctx := context.Background()
	plan := f.createDraft(t)

	_, err := f.svc.ExecutePlan(ctx, plan.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidPlanTransition, "Draft plans cannot be executed")

	f.setPlanStatus(plan.ID, allocation.PlanApproved)
	executed, err := f.svc.ExecutePlan(ctx, plan.ID, ptr(int64(2)))

	require.NoError(t, err)
	assert.Equal(t, allocation.PlanOngoing, executed.Status)
	assert.Equal(t, int64(2), *executed.ExecutedBy)
	assert.Equal(t, 150, f.db.inventory[f.stock].QuantityAvailable)
	require.Len(t, f.db.movements, 1)
	m := f.db.movements[0]
	assert.Equal(t, models.MovementDistribution, m.MovementType)
	assert.Equal(t, -50, m.QuantityChanged)
	assert.Contains(t, *m.Reference, "plan:")
}

func TestDistributionService_ExecuteRollsBackOnShortage(t *testing.T) {
	f := newDistributionFixture()
	ctx := context.Background()
	plan := f.createDraft(t)
	f.setPlanStatus(plan.ID, allocation.PlanApproved)
	inv := f.db.inventory[f.stock]
	inv.QuantityAvailable = 10
	f.db.inventory[f.stock] = inv

	_, err := f.svc.ExecutePlan(ctx, plan.ID, nil)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, allocation.PlanApproved, f.db.plans[plan.ID].Status)
	assert.Equal(t, 10, f.db.inventory[f.stock].QuantityAvailable)
	assert.Empty(t, f.db.movements)
}

func TestDistributionService_CompleteFulfilsRequest(t *testing.T) {
	f := newDistributionFixture()
	ctx := context.Background()
	plan := f.createDraft(t)
	f.setPlanStatus(plan.ID, allocation.PlanOngoing)

	done, err := f.svc.UpdatePlanStatus(ctx, plan.ID, UpdatePlanStatusPayload{Status: "Completed"}, nil)

	require.NoError(t, err)
	assert.Equal(t, allocation.PlanCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, models.RequestFulfilled, f.db.requests[f.request].Status)
}

func TestDistributionService_DeletePlan(t *testing.T) {
	f := newDistributionFixture()
	ctx := context.Background()
	plan := f.createDraft(t)

	f.setPlanStatus(plan.ID, allocation.PlanApproved)
	assert.ErrorIs(t, f.svc.DeletePlan(ctx, plan.ID), ErrPlanNotDeletable)

	f.setPlanStatus(plan.ID, allocation.PlanCancelled)
	assert.NoError(t, f.svc.DeletePlan(ctx, plan.ID))
	assert.ErrorIs(t, f.svc.DeletePlan(ctx, plan.ID), ErrPlanNotFound)
}
