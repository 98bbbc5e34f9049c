package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"

	"github.com/lib/pq"
)

// PlanStatusChange describes a conditional status update of one plan.
type PlanStatusChange struct {
	PlanID  int64
	From    allocation.PlanStatus
	To      allocation.PlanStatus
	ActorID *int64
	At      time.Time
}

// DistributionRepository defines the database operations on plans and plan items.
type DistributionRepository interface {
	CreatePlan(ctx context.Context, executor SQLExecutor, plan *models.DistributionPlan) (int64, error)
	CreatePlanItem(ctx context.Context, executor SQLExecutor, item *models.DistributionPlanItem) (int64, error)
	GetPlanByID(ctx context.Context, id int64) (*models.DistributionPlan, error)
	GetPlans(ctx context.Context, filters models.PlanFilters) ([]models.DistributionPlan, int, error)
	// UpdatePlanStatus returns ErrConflict when the plan is no longer in change.From.
	UpdatePlanStatus(ctx context.Context, executor SQLExecutor, change PlanStatusChange) error
	// DeletePlan only removes plans whose status is one of allowed.
	DeletePlan(ctx context.Context, executor SQLExecutor, id int64, allowed []allocation.PlanStatus) error
}

type distributionRepository struct {
	db *sql.DB
}

// NewDistributionRepository creates a new instance of DistributionRepository.
func NewDistributionRepository(db *sql.DB) DistributionRepository {
	return &distributionRepository{db: db}
}

const planSelect = `
	SELECT p.id, p.request_id, b.name, p.status, p.planned_date, p.total_value, p.remarks,
	       p.created_by, p.approved_by, p.executed_by, p.approved_at, p.executed_at, p.completed_at,
	       p.created_at, p.updated_at`

const planFrom = `
	FROM distribution_plans p
	JOIN beneficiary_requests r ON r.id = p.request_id
	JOIN beneficiaries b ON b.id = r.beneficiary_id`

func scanPlan(s scanner, extra ...interface{}) (*models.DistributionPlan, error) {
	p := &models.DistributionPlan{}
	var plannedDate sql.NullTime
	dest := []interface{}{
		&p.ID, &p.RequestID, &p.BeneficiaryName, &p.Status, &plannedDate, &p.TotalValue, &p.Remarks,
		&p.CreatedBy, &p.ApprovedBy, &p.ExecutedBy, &p.ApprovedAt, &p.ExecutedAt, &p.CompletedAt,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if plannedDate.Valid {
		p.PlannedDate = &plannedDate.Time
	}
	p.Items = []models.DistributionPlanItem{}
	return p, nil
}

// --- Plan methods ---

func (r *distributionRepository) CreatePlan(ctx context.Context, executor SQLExecutor, plan *models.DistributionPlan) (int64, error) {
	query := `INSERT INTO distribution_plans (request_id, status, planned_date, total_value, remarks, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		plan.RequestID, plan.Status, plan.PlannedDate, plan.TotalValue, plan.Remarks, plan.CreatedBy, time.Now(),
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating distribution plan")
	}
	return plan.ID, nil
}

func (r *distributionRepository) GetPlanByID(ctx context.Context, id int64) (*models.DistributionPlan, error) {
	plan, err := scanPlan(r.db.QueryRowContext(ctx, planSelect+planFrom+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting plan by ID %d: %v", ErrDatabaseError, id, err)
	}
	plans := []models.DistributionPlan{*plan}
	if err := r.attachItems(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (r *distributionRepository) GetPlans(ctx context.Context, filters models.PlanFilters) ([]models.DistributionPlan, int, error) {
	plans := []models.DistributionPlan{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(planSelect + `, COUNT(*) OVER() AS total_count` + planFrom)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.RequestID != nil {
		conditions = append(conditions, fmt.Sprintf("p.request_id = $%d", argCounter))
		args = append(args, *filters.RequestID)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.created_at DESC, p.id DESC")

	limit, args := pageClause(filters.Page, filters.PageSize, argCounter, args)
	queryBuilder.WriteString(limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying plans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPlan(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning plan: %v", ErrDatabaseError, err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating plans: %v", ErrDatabaseError, err)
	}
	if err := r.attachItems(ctx, plans); err != nil {
		return nil, 0, err
	}
	return plans, totalCount, nil
}

func (r *distributionRepository) UpdatePlanStatus(ctx context.Context, executor SQLExecutor, change PlanStatusChange) error {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	set := []string{"status = $1", "updated_at = $2"}
	args := []interface{}{change.To, change.At}
	switch change.To {
	case allocation.PlanApproved:
		set = append(set, "approved_by = $3", "approved_at = $2")
		args = append(args, change.ActorID)
	case allocation.PlanOngoing:
		set = append(set, "executed_by = $3", "executed_at = $2")
		args = append(args, change.ActorID)
	case allocation.PlanCompleted:
		set = append(set, "completed_at = $2")
	}
	n := len(args)
	query := fmt.Sprintf(`UPDATE distribution_plans SET %s WHERE id = $%d AND status = $%d`,
		strings.Join(set, ", "), n+1, n+2)
	args = append(args, change.PlanID, change.From)

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "updating plan status")
	}
	if err := expectOneRow(res, "updating plan status"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: plan %d is no longer %s", ErrConflict, change.PlanID, change.From)
		}
		return err
	}
	return nil
}

func (r *distributionRepository) DeletePlan(ctx context.Context, executor SQLExecutor, id int64, allowed []allocation.PlanStatus) error {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}
	res, err := executor.ExecContext(ctx,
		`DELETE FROM distribution_plans WHERE id = $1 AND status = ANY($2)`, id, pq.Array(statuses))
	if err != nil {
		return mapWriteError(err, "deleting plan")
	}
	if err := expectOneRow(res, "deleting plan"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: plan %d missing or not deletable", ErrConflict, id)
		}
		return err
	}
	return nil
}

// --- Plan item methods ---

func (r *distributionRepository) CreatePlanItem(ctx context.Context, executor SQLExecutor, item *models.DistributionPlanItem) (int64, error) {
	query := `INSERT INTO distribution_plan_items (plan_id, inventory_id, quantity, allocated_value, notes)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		item.PlanID, item.InventoryID, item.Quantity, item.AllocatedValue, item.Notes,
	).Scan(&item.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating plan item")
	}
	return item.ID, nil
}

func (r *distributionRepository) attachItems(ctx context.Context, plans []models.DistributionPlan) error {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]int64, len(plans))
	pos := make(map[int64]int, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		pos[p.ID] = i
	}

	query := `SELECT pi.id, pi.plan_id, pi.inventory_id, it.name, pi.quantity, pi.allocated_value, pi.notes
	          FROM distribution_plan_items pi
	          JOIN inventory inv ON inv.id = pi.inventory_id
	          JOIN item_types it ON it.id = inv.itemtype_id
	          WHERE pi.plan_id = ANY($1)
	          ORDER BY pi.plan_id, pi.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: querying plan items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.DistributionPlanItem
		if err := rows.Scan(&item.ID, &item.PlanID, &item.InventoryID, &item.ItemTypeName, &item.Quantity, &item.AllocatedValue, &item.Notes); err != nil {
			return fmt.Errorf("%w: scanning plan item: %v", ErrDatabaseError, err)
		}
		i := pos[item.PlanID]
		plans[i].Items = append(plans[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating plan items: %v", ErrDatabaseError, err)
	}
	return nil
}
