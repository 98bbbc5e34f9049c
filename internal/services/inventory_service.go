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

	"github.com/shopspring/decimal"
)

var (
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrInventoryItemInUse    = errors.New("inventory item is referenced by a distribution plan")
)

// ThresholdProvider returns the effective safety threshold table.
// *cache.ThresholdCache satisfies it.
type ThresholdProvider interface {
	Get(ctx context.Context) (allocation.ThresholdTable, error)
}

// InventoryItemPayload DTO is used for both create and update.
type InventoryItemPayload struct {
	ItemTypeID        int64           `json:"itemtype_id" binding:"required,gt=0"`
	QuantityAvailable *int            `json:"quantity_available" binding:"required,gte=0"`
	UnitValue         decimal.Decimal `json:"unit_value"`
	Location          *string         `json:"location"`
	ExpirationDate    *string         `json:"expiration_date"` // YYYY-MM-DD
	Reason            *string         `json:"reason"`          // recorded on the movement ledger
}

// InventoryService defines business logic for stock records.
type InventoryService interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetItemTypes(ctx context.Context, categoryID *int64) ([]models.ItemType, error)

	CreateItem(ctx context.Context, req InventoryItemPayload, userID *int64) (*models.InventoryItem, error)
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	UpdateItem(ctx context.Context, id int64, req InventoryItemPayload, userID *int64) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64) error

	GetStats(ctx context.Context) (*models.InventoryStats, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryService struct {
	repo         repositories.InventoryRepository
	movementRepo repositories.InventoryMovementRepository
	thresholds   ThresholdProvider
	tx           repositories.Transactor
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(
	repo repositories.InventoryRepository,
	movementRepo repositories.InventoryMovementRepository,
	thresholds ThresholdProvider,
	tx repositories.Transactor,
) InventoryService {
	return &inventoryService{repo: repo, movementRepo: movementRepo, thresholds: thresholds, tx: tx}
}

func (s *inventoryService) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *inventoryService) GetItemTypes(ctx context.Context, categoryID *int64) ([]models.ItemType, error) {
	itemTypes, err := s.repo.GetItemTypes(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item types: %w", err)
	}
	return itemTypes, nil
}

// classify sets Status on every item from the current threshold table.
func (s *inventoryService) classify(ctx context.Context, items []models.InventoryItem) error {
	table, err := s.thresholds.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load safety thresholds: %w", err)
	}
	for i := range items {
		items[i].Status = allocation.Classify(items[i].QuantityAvailable, table.For(items[i].ItemTypeName))
	}
	return nil
}

func (s *inventoryService) toModel(req InventoryItemPayload) (*models.InventoryItem, error) {
	if req.QuantityAvailable == nil || *req.QuantityAvailable < 0 {
		return nil, fmt.Errorf("%w: quantity_available cannot be negative", ErrValidation)
	}
	if req.UnitValue.IsNegative() {
		return nil, fmt.Errorf("%w: unit_value cannot be negative", ErrValidation)
	}
	item := &models.InventoryItem{
		ItemTypeID:        req.ItemTypeID,
		QuantityAvailable: *req.QuantityAvailable,
		UnitValue:         req.UnitValue,
		Location:          utils.NewNullString(utils.DerefString(req.Location)),
	}
	if req.ExpirationDate != nil && !utils.IsEmpty(*req.ExpirationDate) {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(*req.ExpirationDate))
		if err != nil {
			return nil, fmt.Errorf("%w: expiration_date must be YYYY-MM-DD", ErrValidation)
		}
		item.ExpirationDate = &d
	}
	return item, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, req InventoryItemPayload, userID *int64) (*models.InventoryItem, error) {
	item, err := s.toModel(req)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.repo.CreateItem(ctx, exec, item); err != nil {
			return err
		}
		if item.QuantityAvailable == 0 {
			return nil
		}
		_, err := s.movementRepo.CreateMovement(ctx, exec, &models.InventoryMovement{
			InventoryID:     item.ID,
			MovementType:    models.MovementInitial,
			QuantityChanged: item.QuantityAvailable,
			Reason:          utils.NewNullString(utils.DerefString(req.Reason)),
			CreatedBy:       userID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, fmt.Errorf("%w: id %d", ErrItemTypeNotFound, req.ItemTypeID)
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return s.GetItemByID(ctx, item.ID)
}

func (s *inventoryService) GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	items := []models.InventoryItem{*item}
	if err := s.classify(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// GetItems pages in SQL unless a status filter is given; status is derived,
// so that case loads every match, classifies, filters and pages in memory.
func (s *inventoryService) GetItems(ctx context.Context, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	if filters.Status == nil {
		items, total, err := s.repo.GetItems(ctx, filters)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list inventory: %w", err)
		}
		if err := s.classify(ctx, items); err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	status, ok := allocation.ParseStockStatus(*filters.Status)
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown stock status '%s'", ErrValidation, *filters.Status)
	}
	page, pageSize := filters.Page, filters.PageSize
	all := filters
	all.Page, all.PageSize = 1, 0
	items, _, err := s.repo.GetItems(ctx, all)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory: %w", err)
	}
	if err := s.classify(ctx, items); err != nil {
		return nil, 0, err
	}

	matched := make([]models.InventoryItem, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			matched = append(matched, it)
		}
	}
	total := len(matched)
	if pageSize <= 0 {
		return matched, total, nil
	}
	if page < 1 {
		page = 1
	}
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return matched[start:end], total, nil
}

// UpdateItem writes an adjustment movement when the quantity changes.
func (s *inventoryService) UpdateItem(ctx context.Context, id int64, req InventoryItemPayload, userID *int64) (*models.InventoryItem, error) {
	item, err := s.toModel(req)
	if err != nil {
		return nil, err
	}
	item.ID = id

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		previous, err := s.repo.LockQuantity(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateItem(ctx, exec, item); err != nil {
			return err
		}
		delta := item.QuantityAvailable - previous
		if delta == 0 {
			return nil
		}
		_, err = s.movementRepo.CreateMovement(ctx, exec, &models.InventoryMovement{
			InventoryID:     id,
			MovementType:    models.MovementAdjustment,
			QuantityChanged: delta,
			Reason:          utils.NewNullString(utils.DerefString(req.Reason)),
			CreatedBy:       userID,
		})
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrInventoryItemNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, fmt.Errorf("%w: id %d", ErrItemTypeNotFound, req.ItemTypeID)
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	return s.GetItemByID(ctx, id)
}

func (s *inventoryService) DeleteItem(ctx context.Context, id int64) error {
	err := s.repo.DeleteItem(ctx, s.tx.Executor(), id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrInventoryItemNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrInventoryItemInUse
	default:
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
}

// GetStats totals the whole snapshot. Every status appears in StatusCounts, zero or not.
func (s *inventoryService) GetStats(ctx context.Context) (*models.InventoryStats, error) {
	items, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory snapshot: %w", err)
	}
	if err := s.classify(ctx, items); err != nil {
		return nil, err
	}

	stats := &models.InventoryStats{
		TotalValue:   decimal.Zero,
		StatusCounts: make(map[string]int, len(allocation.AllStockStatuses)),
		Categories:   []models.CategoryStockStat{},
	}
	for _, st := range allocation.AllStockStatuses {
		stats.StatusCounts[string(st)] = 0
	}

	byCategory := map[string]*models.CategoryStockStat{}
	for _, it := range items {
		value := it.UnitValue.Mul(decimal.NewFromInt(int64(it.QuantityAvailable)))
		stats.TotalRecords++
		stats.TotalQuantity += it.QuantityAvailable
		stats.TotalValue = stats.TotalValue.Add(value)
		stats.StatusCounts[string(it.Status)]++

		name := utils.DerefString(it.Category)
		if name == "" {
			name = "Uncategorized"
		}
		cs, ok := byCategory[name]
		if !ok {
			cs = &models.CategoryStockStat{Category: name, TotalValue: decimal.Zero}
			byCategory[name] = cs
		}
		cs.Records++
		cs.TotalQuantity += it.QuantityAvailable
		cs.TotalValue = cs.TotalValue.Add(value)
	}
	for _, cs := range byCategory {
		stats.Categories = append(stats.Categories, *cs)
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].Category < stats.Categories[j].Category
	})
	return stats, nil
}

func (s *inventoryService) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements, total, err := s.movementRepo.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	return movements, total, nil
}
