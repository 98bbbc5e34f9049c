package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"relief_backend/internal/models"
)

// ThresholdRepository reads and writes rows of safety_thresholds.
type ThresholdRepository interface {
	GetOverrides(ctx context.Context) ([]models.ThresholdOverride, error)
	UpsertOverride(ctx context.Context, executor SQLExecutor, o *models.ThresholdOverride) error
	DeleteOverride(ctx context.Context, executor SQLExecutor, itemTypeName string) error
}

type thresholdRepository struct {
	db *sql.DB
}

// NewThresholdRepository creates a new instance of ThresholdRepository.
func NewThresholdRepository(db *sql.DB) ThresholdRepository {
	return &thresholdRepository{db: db}
}

func (r *thresholdRepository) GetOverrides(ctx context.Context) ([]models.ThresholdOverride, error) {
	overrides := []models.ThresholdOverride{}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, itemtype_name, critical_level, reorder_level, max_level, updated_at
		 FROM safety_thresholds ORDER BY itemtype_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying safety thresholds: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.ThresholdOverride
		if err := rows.Scan(&o.ID, &o.ItemTypeName, &o.Critical, &o.Reorder, &o.Max, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning safety threshold: %v", ErrDatabaseError, err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating safety thresholds: %v", ErrDatabaseError, err)
	}
	return overrides, nil
}

func (r *thresholdRepository) UpsertOverride(ctx context.Context, executor SQLExecutor, o *models.ThresholdOverride) error {
	query := `INSERT INTO safety_thresholds (itemtype_name, critical_level, reorder_level, max_level, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (itemtype_name) DO UPDATE
	          SET critical_level = EXCLUDED.critical_level,
	              reorder_level = EXCLUDED.reorder_level,
	              max_level = EXCLUDED.max_level,
	              updated_at = EXCLUDED.updated_at
	          RETURNING id, updated_at`
	err := executor.QueryRowContext(ctx, query, o.ItemTypeName, o.Critical, o.Reorder, o.Max, time.Now()).Scan(&o.ID, &o.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "upserting safety threshold")
	}
	return nil
}

func (r *thresholdRepository) DeleteOverride(ctx context.Context, executor SQLExecutor, itemTypeName string) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM safety_thresholds WHERE itemtype_name = $1`, itemTypeName)
	if err != nil {
		return mapWriteError(err, "deleting safety threshold")
	}
	return expectOneRow(res, "deleting safety threshold")
}
