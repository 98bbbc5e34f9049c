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

// BeneficiaryRepository defines the interface for beneficiary-related database operations.
type BeneficiaryRepository interface {
	CreateBeneficiary(ctx context.Context, executor SQLExecutor, b *models.Beneficiary) (int64, error)
	GetBeneficiaryByID(ctx context.Context, id int64) (*models.Beneficiary, error)
	GetBeneficiaries(ctx context.Context, filters models.BeneficiaryFilters) ([]models.Beneficiary, int, error) // Beneficiaries, total count, error
	UpdateBeneficiary(ctx context.Context, executor SQLExecutor, b *models.Beneficiary) error
	DeleteBeneficiary(ctx context.Context, executor SQLExecutor, id int64) error
}

type beneficiaryRepository struct {
	db *sql.DB
}

// NewBeneficiaryRepository creates a new instance of BeneficiaryRepository.
func NewBeneficiaryRepository(db *sql.DB) BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

const beneficiaryColumns = `id, name, beneficiary_type, contact_person, contact_number, email, address, city, province, notes, created_at, updated_at`

func scanBeneficiary(s scanner, extra ...interface{}) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	dest := []interface{}{
		&b.ID, &b.Name, &b.BeneficiaryType, &b.ContactPerson, &b.ContactNumber, &b.Email,
		&b.Address, &b.City, &b.Province, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBeneficiary inserts a new beneficiary into the database.
func (r *beneficiaryRepository) CreateBeneficiary(ctx context.Context, executor SQLExecutor, b *models.Beneficiary) (int64, error) {
	query := `INSERT INTO beneficiaries (name, beneficiary_type, contact_person, contact_number, email, address, city, province, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	          RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		b.Name, b.BeneficiaryType, b.ContactPerson, b.ContactNumber, b.Email,
		b.Address, b.City, b.Province, b.Notes, time.Now(),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating beneficiary")
	}
	return b.ID, nil
}

// GetBeneficiaryByID retrieves a beneficiary by ID.
func (r *beneficiaryRepository) GetBeneficiaryByID(ctx context.Context, id int64) (*models.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE id = $1`
	b, err := scanBeneficiary(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting beneficiary by ID %d: %v", ErrDatabaseError, id, err)
	}
	return b, nil
}

// GetBeneficiaries retrieves a page of beneficiaries with optional search and type filters.
func (r *beneficiaryRepository) GetBeneficiaries(ctx context.Context, filters models.BeneficiaryFilters) ([]models.Beneficiary, int, error) {
	beneficiaries := []models.Beneficiary{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + beneficiaryColumns + `, COUNT(*) OVER() AS total_count FROM beneficiaries`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR contact_person ILIKE $%d OR city ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+strings.TrimSpace(*filters.Search)+"%")
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("beneficiary_type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name ASC, id ASC")

	limit, args := pageClause(filters.Page, filters.PageSize, argCount, args)
	queryBuilder.WriteString(limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying beneficiaries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBeneficiary(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning beneficiary: %v", ErrDatabaseError, err)
		}
		beneficiaries = append(beneficiaries, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating beneficiaries: %v", ErrDatabaseError, err)
	}
	return beneficiaries, totalCount, nil
}

// UpdateBeneficiary overwrites all editable fields.
func (r *beneficiaryRepository) UpdateBeneficiary(ctx context.Context, executor SQLExecutor, b *models.Beneficiary) error {
	query := `UPDATE beneficiaries
	          SET name = $1, beneficiary_type = $2, contact_person = $3, contact_number = $4, email = $5,
	              address = $6, city = $7, province = $8, notes = $9, updated_at = $10
	          WHERE id = $11`
	b.UpdatedAt = time.Now()
	res, err := executor.ExecContext(ctx, query,
		b.Name, b.BeneficiaryType, b.ContactPerson, b.ContactNumber, b.Email,
		b.Address, b.City, b.Province, b.Notes, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return mapWriteError(err, "updating beneficiary")
	}
	return expectOneRow(res, "updating beneficiary")
}

// DeleteBeneficiary fails with ErrForeignKey while requests still reference it.
func (r *beneficiaryRepository) DeleteBeneficiary(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM beneficiaries WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, "deleting beneficiary")
	}
	return expectOneRow(res, "deleting beneficiary")
}
