package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"relief_backend/internal/models"
)

// InventoryRepository defines the database operations on categories, item types and stock records.
type InventoryRepository interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetItemTypes(ctx context.Context, categoryID *int64) ([]models.ItemType, error)
	GetItemTypeByID(ctx context.Context, id int64) (*models.ItemType, error)

	CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) (int64, error)
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	// GetItems ignores filters.Status; status is derived by the service.
	GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	// GetSnapshot returns every stock record, earliest expiry first.
	GetSnapshot(ctx context.Context) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, executor SQLExecutor, id int64) error

	// LockQuantity reads the current quantity with a row lock.
	LockQuantity(ctx context.Context, executor SQLExecutor, id int64) (int, error)
	// DecrementStock returns ErrConflict when the record holds less than quantity.
	DecrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity int) (int, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// --- Category and item type methods ---

func (r *inventoryRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

const itemTypeSelect = `
	SELECT it.id, it.name, it.category_id, c.name, it.unit, it.created_at
	FROM item_types it
	LEFT JOIN categories c ON c.id = it.category_id`

func scanItemType(s scanner) (*models.ItemType, error) {
	t := &models.ItemType{}
	if err := s.Scan(&t.ID, &t.Name, &t.CategoryID, &t.CategoryName, &t.Unit, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *inventoryRepository) GetItemTypes(ctx context.Context, categoryID *int64) ([]models.ItemType, error) {
	itemTypes := []models.ItemType{}
	query := itemTypeSelect
	var args []interface{}
	if categoryID != nil {
		query += ` WHERE it.category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY it.name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying item types: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanItemType(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning item type: %v", ErrDatabaseError, err)
		}
		itemTypes = append(itemTypes, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating item types: %v", ErrDatabaseError, err)
	}
	return itemTypes, nil
}

func (r *inventoryRepository) GetItemTypeByID(ctx context.Context, id int64) (*models.ItemType, error) {
	t, err := scanItemType(r.db.QueryRowContext(ctx, itemTypeSelect+` WHERE it.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting item type by ID %d: %v", ErrDatabaseError, id, err)
	}
	return t, nil
}

// --- Inventory record methods ---

const inventorySelect = `
	SELECT inv.id, inv.itemtype_id, it.name, it.category_id, c.name, inv.quantity_available, inv.unit_value,
	       inv.location, inv.expiration_date, inv.created_at, inv.updated_at`

const inventoryFrom = `
	FROM inventory inv
	JOIN item_types it ON it.id = inv.itemtype_id
	LEFT JOIN categories c ON c.id = it.category_id`

func scanInventoryItem(s scanner, extra ...interface{}) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	var expiration sql.NullTime
	dest := []interface{}{
		&item.ID, &item.ItemTypeID, &item.ItemTypeName, &item.CategoryID, &item.Category,
		&item.QuantityAvailable, &item.UnitValue, &item.Location, &expiration, &item.CreatedAt, &item.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if expiration.Valid {
		item.ExpirationDate = &expiration.Time
	}
	return item, nil
}

func (r *inventoryRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) (int64, error) {
	query := `INSERT INTO inventory (itemtype_id, quantity_available, unit_value, location, expiration_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		item.ItemTypeID, item.QuantityAvailable, item.UnitValue, item.Location, item.ExpirationDate, time.Now(),
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating inventory item")
	}
	return item.ID, nil
}

func (r *inventoryRepository) GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := scanInventoryItem(r.db.QueryRowContext(ctx, inventorySelect+inventoryFrom+` WHERE inv.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(inventorySelect + `, COUNT(*) OVER() AS total_count` + inventoryFrom)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("it.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.ItemTypeID != nil {
		conditions = append(conditions, fmt.Sprintf("inv.itemtype_id = $%d", argCount))
		args = append(args, *filters.ItemTypeID)
		argCount++
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(it.name ILIKE $%d OR inv.location ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+strings.TrimSpace(*filters.Search)+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY it.name ASC, inv.id ASC")

	limit, args := pageClause(filters.Page, filters.PageSize, argCount, args)
	queryBuilder.WriteString(limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying inventory: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanInventoryItem(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *inventoryRepository) GetSnapshot(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	query := inventorySelect + inventoryFrom + ` ORDER BY inv.expiration_date ASC NULLS LAST, inv.id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying inventory snapshot: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory snapshot: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) UpdateItem(ctx context.Context, executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory
	          SET itemtype_id = $1, quantity_available = $2, unit_value = $3, location = $4, expiration_date = $5, updated_at = $6
	          WHERE id = $7`
	item.UpdatedAt = time.Now()
	res, err := executor.ExecContext(ctx, query,
		item.ItemTypeID, item.QuantityAvailable, item.UnitValue, item.Location, item.ExpirationDate, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return mapWriteError(err, "updating inventory item")
	}
	return expectOneRow(res, "updating inventory item")
}

// DeleteItem fails with ErrForeignKey while a plan still references the record.
func (r *inventoryRepository) DeleteItem(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, "deleting inventory item")
	}
	return expectOneRow(res, "deleting inventory item")
}

func (r *inventoryRepository) LockQuantity(ctx context.Context, executor SQLExecutor, id int64) (int, error) {
	var qty int
	err := executor.QueryRowContext(ctx, `SELECT quantity_available FROM inventory WHERE id = $1 FOR UPDATE`, id).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: locking inventory item %d: %v", ErrDatabaseError, id, err)
	}
	return qty, nil
}

func (r *inventoryRepository) DecrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity int) (int, error) {
	var remaining int
	query := `UPDATE inventory
	          SET quantity_available = quantity_available - $1, updated_at = $2
	          WHERE id = $3 AND quantity_available >= $1
	          RETURNING quantity_available`
	err := executor.QueryRowContext(ctx, query, quantity, time.Now(), id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: inventory item %d holds less than %d", ErrConflict, id, quantity)
		}
		return 0, fmt.Errorf("%w: decrementing inventory item %d: %v", ErrDatabaseError, id, err)
	}
	return remaining, nil
}
