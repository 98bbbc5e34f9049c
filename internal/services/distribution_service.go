package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"
	"relief_backend/internal/repositories"
	"relief_backend/pkg/utils"
)

var (
	ErrPlanNotFound          = errors.New("distribution plan not found")
	ErrInvalidPlanTransition = errors.New("invalid plan status transition")
	ErrPlanNotDeletable      = errors.New("only draft or cancelled plans can be deleted")
	ErrInsufficientStock     = errors.New("insufficient stock to execute plan")
	ErrRequestNotApproved    = errors.New("only approved requests can be planned")
	ErrNoPlansCreated        = errors.New("no plan could be created for the selected requests")
)

// RecommendationPayload DTO
type RecommendationPayload struct {
	RequestIDs []int64 `json:"request_ids" binding:"required,min=1,dive,gt=0"`
}

// ItemRecommendation is one aggregated item with its stock position and the optimizer's advice.
type ItemRecommendation struct {
	allocation.AggregatedItem
	CurrentStock     int                       `json:"current_stock"`
	InventoryMatched bool                      `json:"inventory_matched"`
	StockStatus      allocation.StockStatus    `json:"stock_status"`
	Threshold        allocation.Threshold      `json:"threshold"`
	Recommendation   allocation.Recommendation `json:"recommendation"`
}

// RecommendationResult DTO
type RecommendationResult struct {
	RequestIDs []int64              `json:"request_ids"`
	Items      []ItemRecommendation `json:"items"`
}

// CreatePlansPayload DTO. Allowances are keyed by item type name.
type CreatePlansPayload struct {
	RequestIDs  []int64        `json:"request_ids" binding:"required,min=1,dive,gt=0"`
	Allowances  map[string]int `json:"allowances"`
	PlannedDate *string        `json:"planned_date"` // YYYY-MM-DD
	Remarks     *string        `json:"remarks"`
}

// CreatePlansResult DTO
type CreatePlansResult struct {
	Plans    []models.DistributionPlan `json:"plans"`
	Warnings []allocation.Warning      `json:"warnings"`
}

// UpdatePlanStatusPayload DTO
type UpdatePlanStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// DistributionService turns approved requests into plans and drives the plan lifecycle.
type DistributionService interface {
	Recommend(ctx context.Context, req RecommendationPayload) (*RecommendationResult, error)
	CreatePlans(ctx context.Context, req CreatePlansPayload, userID *int64) (*CreatePlansResult, error)
	GetPlans(ctx context.Context, filters models.PlanFilters) ([]models.DistributionPlan, int, error)
	GetPlanByID(ctx context.Context, id int64) (*models.DistributionPlan, error)
	UpdatePlanStatus(ctx context.Context, id int64, req UpdatePlanStatusPayload, userID *int64) (*models.DistributionPlan, error)
	ExecutePlan(ctx context.Context, id int64, userID *int64) (*models.DistributionPlan, error)
	DeletePlan(ctx context.Context, id int64) error
}

type distributionService struct {
	planRepo     repositories.DistributionRepository
	requestRepo  repositories.RequestRepository
	invRepo      repositories.InventoryRepository
	movementRepo repositories.InventoryMovementRepository
	thresholds   ThresholdProvider
	tx           repositories.Transactor
	now          func() time.Time
}

// NewDistributionService creates a new DistributionService.
func NewDistributionService(
	planRepo repositories.DistributionRepository,
	requestRepo repositories.RequestRepository,
	invRepo repositories.InventoryRepository,
	movementRepo repositories.InventoryMovementRepository,
	thresholds ThresholdProvider,
	tx repositories.Transactor,
) DistributionService {
	return &distributionService{
		planRepo:     planRepo,
		requestRepo:  requestRepo,
		invRepo:      invRepo,
		movementRepo: movementRepo,
		thresholds:   thresholds,
		tx:           tx,
		now:          time.Now,
	}
}

// loadApprovedRequests returns the requests in the order given, duplicates removed.
func (s *distributionService) loadApprovedRequests(ctx context.Context, ids []int64) ([]models.BeneficiaryRequest, error) {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	requests, err := s.requestRepo.GetRequestsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	found := make(map[int64]bool, len(requests))
	var notApproved []string
	for _, r := range requests {
		found[r.ID] = true
		if r.Status != models.RequestApproved {
			notApproved = append(notApproved, fmt.Sprintf("%d (%s)", r.ID, r.Status))
		}
	}
	var missing []string
	for _, id := range unique {
		if !found[id] {
			missing = append(missing, utils.Int64ToStr(id))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, strings.Join(missing, ", "))
	}
	if len(notApproved) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotApproved, strings.Join(notApproved, ", "))
	}
	return requests, nil
}

func (s *distributionService) snapshot(ctx context.Context) ([]allocation.InventoryRecord, error) {
	items, err := s.invRepo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory snapshot: %w", err)
	}
	records := make([]allocation.InventoryRecord, len(items))
	for i := range items {
		records[i] = items[i].ToAllocation()
	}
	return records, nil
}

func (s *distributionService) Recommend(ctx context.Context, req RecommendationPayload) (*RecommendationResult, error) {
	requests, err := s.loadApprovedRequests(ctx, req.RequestIDs)
	if err != nil {
		return nil, err
	}
	stock, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.thresholds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety thresholds: %w", err)
	}

	input := make([]allocation.Request, len(requests))
	result := &RecommendationResult{RequestIDs: make([]int64, len(requests))}
	for i := range requests {
		input[i] = requests[i].ToAllocation()
		result.RequestIDs[i] = requests[i].ID
	}

	aggregated := allocation.Aggregate(input)
	result.Items = make([]ItemRecommendation, 0, len(aggregated))
	for _, item := range aggregated {
		qty, matched := allocation.AvailableStock(stock, item)
		t := table.For(item.ItemTypeName)
		result.Items = append(result.Items, ItemRecommendation{
			AggregatedItem:   item,
			CurrentStock:     qty,
			InventoryMatched: matched,
			StockStatus:      allocation.Classify(qty, t),
			Threshold:        t,
			Recommendation:   allocation.Optimize(item, qty, t.Critical),
		})
	}
	return result, nil
}

// CreatePlans builds Draft plans against one inventory snapshot and persists them together.
func (s *distributionService) CreatePlans(ctx context.Context, req CreatePlansPayload, userID *int64) (*CreatePlansResult, error) {
	for name, qty := range req.Allowances {
		if qty < 0 {
			return nil, fmt.Errorf("%w: allowance for '%s' cannot be negative", ErrValidation, name)
		}
	}
	var plannedDate *time.Time
	if req.PlannedDate != nil && !utils.IsEmpty(*req.PlannedDate) {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(*req.PlannedDate))
		if err != nil {
			return nil, fmt.Errorf("%w: planned_date must be YYYY-MM-DD", ErrValidation)
		}
		plannedDate = &d
	}

	requests, err := s.loadApprovedRequests(ctx, req.RequestIDs)
	if err != nil {
		return nil, err
	}
	stock, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	table, err := s.thresholds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety thresholds: %w", err)
	}

	input := allocation.PlanInput{Allowances: req.Allowances, Inventory: stock}
	for i := range requests {
		input.Requests = append(input.Requests, requests[i].ToAllocation())
	}
	built := allocation.NewBuilder(table).Build(input)

	result := &CreatePlansResult{Plans: []models.DistributionPlan{}, Warnings: built.Warnings}
	if result.Warnings == nil {
		result.Warnings = []allocation.Warning{}
	}
	for _, w := range built.Warnings {
		utils.LogWarn("Distribution planning warning", map[string]interface{}{
			"request_id": w.RequestID, "itemtype_name": w.ItemTypeName, "code": w.Code, "message": w.Message,
		})
	}
	if len(built.Plans) == 0 {
		return result, ErrNoPlansCreated
	}

	createdIDs := make([]int64, 0, len(built.Plans))
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		createdIDs = createdIDs[:0]
		for _, p := range built.Plans {
			plan := &models.DistributionPlan{
				RequestID:   p.RequestID,
				Status:      allocation.PlanDraft,
				PlannedDate: plannedDate,
				TotalValue:  p.TotalValue,
				Remarks:     utils.NewNullString(utils.DerefString(req.Remarks)),
				CreatedBy:   userID,
			}
			if _, err := s.planRepo.CreatePlan(ctx, exec, plan); err != nil {
				return err
			}
			for _, it := range p.Items {
				item := &models.DistributionPlanItem{
					PlanID:         plan.ID,
					InventoryID:    it.InventoryID,
					Quantity:       it.Quantity,
					AllocatedValue: it.AllocatedValue,
					Notes:          utils.NewNullString(it.Notes),
				}
				if _, err := s.planRepo.CreatePlanItem(ctx, exec, item); err != nil {
					return err
				}
			}
			createdIDs = append(createdIDs, plan.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save distribution plans: %w", err)
	}

	for _, id := range createdIDs {
		plan, err := s.GetPlanByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Plans = append(result.Plans, *plan)
	}
	utils.LogInfo("Distribution plans created", map[string]interface{}{
		"plans": len(createdIDs), "warnings": len(result.Warnings), "created_by": userID,
	})
	return result, nil
}

func (s *distributionService) GetPlans(ctx context.Context, filters models.PlanFilters) ([]models.DistributionPlan, int, error) {
	if filters.Status != nil {
		st, ok := allocation.ParsePlanStatus(*filters.Status)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown plan status '%s'", ErrValidation, *filters.Status)
		}
		v := string(st)
		filters.Status = &v
	}
	plans, total, err := s.planRepo.GetPlans(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list distribution plans: %w", err)
	}
	return plans, total, nil
}

func (s *distributionService) GetPlanByID(ctx context.Context, id int64) (*models.DistributionPlan, error) {
	plan, err := s.planRepo.GetPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get distribution plan: %w", err)
	}
	return plan, nil
}

// UpdatePlanStatus applies approve, complete and cancel. Completing a plan
// fulfils its request in the same transaction.
func (s *distributionService) UpdatePlanStatus(ctx context.Context, id int64, req UpdatePlanStatusPayload, userID *int64) (*models.DistributionPlan, error) {
	to, ok := allocation.ParsePlanStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan status '%s'", ErrValidation, req.Status)
	}
	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allocation.CheckStatusUpdate(plan.Status, to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlanTransition, err)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		change := repositories.PlanStatusChange{PlanID: id, From: plan.Status, To: to, ActorID: userID, At: s.now()}
		if err := s.planRepo.UpdatePlanStatus(ctx, exec, change); err != nil {
			return err
		}
		if to != allocation.PlanCompleted {
			return nil
		}
		return s.fulfilRequest(ctx, exec, plan.RequestID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPlanTransition, err)
		}
		return nil, fmt.Errorf("failed to update plan status: %w", err)
	}

	utils.LogInfo("Plan status changed", map[string]interface{}{"plan_id": id, "from": plan.Status, "to": to, "user_id": userID})
	return s.GetPlanByID(ctx, id)
}

func (s *distributionService) fulfilRequest(ctx context.Context, exec repositories.SQLExecutor, requestID int64) error {
	request, err := s.requestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	switch request.Status {
	case models.RequestFulfilled:
		return nil
	case models.RequestApproved:
		return s.requestRepo.UpdateRequestStatus(ctx, exec, requestID, models.RequestApproved, models.RequestFulfilled)
	default:
		utils.LogWarn("Plan completed for a request that is not approved", map[string]interface{}{
			"request_id": requestID, "status": request.Status,
		})
		return nil
	}
}

// ExecutePlan moves an Approved plan to Ongoing and draws its stock. Any
// record short of its line aborts the whole execution.
func (s *distributionService) ExecutePlan(ctx context.Context, id int64, userID *int64) (*models.DistributionPlan, error) {
	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allocation.CheckExecute(plan.Status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlanTransition, err)
	}

	// Lock rows in id order so concurrent executions cannot deadlock.
	items := make([]models.DistributionPlanItem, len(plan.Items))
	copy(items, plan.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].InventoryID < items[j].InventoryID })

	reference := fmt.Sprintf("plan:%d", id)
	reason := fmt.Sprintf("Distribution plan %d for %s", id, plan.BeneficiaryName)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		change := repositories.PlanStatusChange{PlanID: id, From: allocation.PlanApproved, To: allocation.PlanOngoing, ActorID: userID, At: s.now()}
		if err := s.planRepo.UpdatePlanStatus(ctx, exec, change); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return fmt.Errorf("%w: %v", ErrInvalidPlanTransition, err)
			}
			return err
		}
		for _, it := range items {
			if _, err := s.invRepo.DecrementStock(ctx, exec, it.InventoryID, it.Quantity); err != nil {
				if errors.Is(err, repositories.ErrConflict) {
					return fmt.Errorf("%w: %s (inventory %d) needs %d", ErrInsufficientStock, it.ItemTypeName, it.InventoryID, it.Quantity)
				}
				return err
			}
			_, err := s.movementRepo.CreateMovement(ctx, exec, &models.InventoryMovement{
				InventoryID:     it.InventoryID,
				MovementType:    models.MovementDistribution,
				QuantityChanged: -it.Quantity,
				Reference:       &reference,
				Reason:          &reason,
				CreatedBy:       userID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPlanTransition) || errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to execute plan: %w", err)
	}

	utils.LogInfo("Plan executed", map[string]interface{}{"plan_id": id, "items": len(items), "user_id": userID})
	return s.GetPlanByID(ctx, id)
}

func (s *distributionService) DeletePlan(ctx context.Context, id int64) error {
	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}
	if !allocation.CanDelete(plan.Status) {
		return ErrPlanNotDeletable
	}
	err = s.planRepo.DeletePlan(ctx, s.tx.Executor(), id, []allocation.PlanStatus{allocation.PlanDraft, allocation.PlanCancelled})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return ErrPlanNotDeletable
		}
		return fmt.Errorf("failed to delete distribution plan: %w", err)
	}
	return nil
}
