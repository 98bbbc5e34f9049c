package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"relief_backend/internal/models"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	db *sql.DB
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db *sql.DB) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (inventory_id, movement_type, quantity_changed, reference, reason, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := executor.QueryRowContext(ctx, query,
		movement.InventoryID, movement.MovementType, movement.QuantityChanged,
		movement.Reference, movement.Reason, movement.CreatedBy, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating inventory movement")
	}
	return movement.ID, nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.inventory_id, it.name, im.movement_type, im.quantity_changed,
	    im.reference, im.reason, im.created_by, im.created_at,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  JOIN inventory inv ON inv.id = im.inventory_id
	  JOIN item_types it ON it.id = inv.itemtype_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.InventoryID != nil {
		conditions = append(conditions, fmt.Sprintf("im.inventory_id = $%d", argCount))
		args = append(args, *filters.InventoryID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("im.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY im.created_at DESC, im.id DESC")

	limit, args := pageClause(filters.Page, filters.PageSize, argCount, args)
	queryBuilder.WriteString(limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.InventoryMovement
		err := rows.Scan(
			&m.ID, &m.InventoryID, &m.ItemTypeName, &m.MovementType, &m.QuantityChanged,
			&m.Reference, &m.Reason, &m.CreatedBy, &m.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
