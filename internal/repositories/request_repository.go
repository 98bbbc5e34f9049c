package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"relief_backend/internal/models"

	"github.com/lib/pq"
)

// RequestRepository defines the database operations on beneficiary requests and their items.
type RequestRepository interface {
	CreateRequest(ctx context.Context, executor SQLExecutor, req *models.BeneficiaryRequest) (int64, error)
	CreateRequestItem(ctx context.Context, executor SQLExecutor, item *models.RequestItem) (int64, error)
	GetRequestByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error)
	GetRequestsByIDs(ctx context.Context, ids []int64) ([]models.BeneficiaryRequest, error)
	GetRequests(ctx context.Context, filters models.RequestFilters) ([]models.BeneficiaryRequest, int, error)
	// UpdateRequestStatus only succeeds while the row is still in status from.
	UpdateRequestStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.RequestStatus) error
	DeleteRequest(ctx context.Context, executor SQLExecutor, id int64) error
}

type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new instance of RequestRepository.
func NewRequestRepository(db *sql.DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestSelect = `
	SELECT r.id, r.beneficiary_id, b.name, r.purpose, r.urgency, r.individuals_served, r.status,
	       r.request_date, r.notes, r.created_by, r.created_at, r.updated_at`

const requestFrom = `
	FROM beneficiary_requests r
	JOIN beneficiaries b ON b.id = r.beneficiary_id`

func scanRequest(s scanner, extra ...interface{}) (*models.BeneficiaryRequest, error) {
	req := &models.BeneficiaryRequest{}
	dest := []interface{}{
		&req.ID, &req.BeneficiaryID, &req.BeneficiaryName, &req.Purpose, &req.Urgency, &req.IndividualsServed,
		&req.Status, &req.RequestDate, &req.Notes, &req.CreatedBy, &req.CreatedAt, &req.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	req.Items = []models.RequestItem{}
	return req, nil
}

// CreateRequest inserts the request row. Items are inserted separately.
func (r *requestRepository) CreateRequest(ctx context.Context, executor SQLExecutor, req *models.BeneficiaryRequest) (int64, error) {
	query := `INSERT INTO beneficiary_requests
	            (beneficiary_id, purpose, urgency, individuals_served, status, request_date, notes, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	          RETURNING id, created_at, updated_at`

	if req.RequestDate.IsZero() {
		req.RequestDate = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		req.BeneficiaryID, req.Purpose, req.Urgency, req.IndividualsServed, req.Status,
		req.RequestDate, req.Notes, req.CreatedBy, time.Now(),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return 0, mapWriteError(err, "creating beneficiary request")
	}
	return req.ID, nil
}

func (r *requestRepository) CreateRequestItem(ctx context.Context, executor SQLExecutor, item *models.RequestItem) (int64, error) {
	query := `INSERT INTO request_items (request_id, itemtype_id, quantity_requested)
	          VALUES ($1, $2, $3)
	          RETURNING id, (SELECT name FROM item_types WHERE id = $2)`
	var name sql.NullString
	err := executor.QueryRowContext(ctx, query, item.RequestID, item.ItemTypeID, item.QuantityRequested).Scan(&item.ID, &name)
	if err != nil {
		return 0, mapWriteError(err, "creating request item")
	}
	item.ItemTypeName = name.String
	return item.ID, nil
}

// GetRequestByID retrieves a request with its items.
func (r *requestRepository) GetRequestByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+requestFrom+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting request by ID %d: %v", ErrDatabaseError, id, err)
	}
	reqs := []models.BeneficiaryRequest{*req}
	if err := r.attachItems(ctx, reqs); err != nil {
		return nil, err
	}
	return &reqs[0], nil
}

// GetRequestsByIDs returns the requests in the order of ids. Unknown ids are skipped.
func (r *requestRepository) GetRequestsByIDs(ctx context.Context, ids []int64) ([]models.BeneficiaryRequest, error) {
	requests := []models.BeneficiaryRequest{}
	if len(ids) == 0 {
		return requests, nil
	}
	query := requestSelect + requestFrom + ` WHERE r.id = ANY($1) ORDER BY array_position($1, r.id)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying requests by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning request: %v", ErrDatabaseError, err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating requests: %v", ErrDatabaseError, err)
	}
	if err := r.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// GetRequests lists requests newest first, with items.
func (r *requestRepository) GetRequests(ctx context.Context, filters models.RequestFilters) ([]models.BeneficiaryRequest, int, error) {
	requests := []models.BeneficiaryRequest{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(requestSelect + `, COUNT(*) OVER() AS total_count` + requestFrom)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Urgency != nil && *filters.Urgency != "" {
		conditions = append(conditions, fmt.Sprintf("r.urgency = $%d", argCount))
		args = append(args, *filters.Urgency)
		argCount++
	}
	if filters.BeneficiaryID != nil {
		conditions = append(conditions, fmt.Sprintf("r.beneficiary_id = $%d", argCount))
		args = append(args, *filters.BeneficiaryID)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY r.request_date DESC, r.id DESC")

	limit, args := pageClause(filters.Page, filters.PageSize, argCount, args)
	queryBuilder.WriteString(limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying requests: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		req, err := scanRequest(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning request: %v", ErrDatabaseError, err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating requests: %v", ErrDatabaseError, err)
	}
	if err := r.attachItems(ctx, requests); err != nil {
		return nil, 0, err
	}
	return requests, totalCount, nil
}

// attachItems loads the items of all requests in one query.
func (r *requestRepository) attachItems(ctx context.Context, requests []models.BeneficiaryRequest) error {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]int64, len(requests))
	pos := make(map[int64]int, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
		pos[req.ID] = i
	}

	query := `SELECT ri.id, ri.request_id, ri.itemtype_id, it.name, ri.quantity_requested
	          FROM request_items ri
	          JOIN item_types it ON it.id = ri.itemtype_id
	          WHERE ri.request_id = ANY($1)
	          ORDER BY ri.request_id, ri.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: querying request items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.RequestItem
		if err := rows.Scan(&item.ID, &item.RequestID, &item.ItemTypeID, &item.ItemTypeName, &item.QuantityRequested); err != nil {
			return fmt.Errorf("%w: scanning request item: %v", ErrDatabaseError, err)
		}
		i := pos[item.RequestID]
		requests[i].Items = append(requests[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating request items: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *requestRepository) UpdateRequestStatus(ctx context.Context, executor SQLExecutor, id int64, from, to models.RequestStatus) error {
	res, err := executor.ExecContext(ctx,
		`UPDATE beneficiary_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now(), id, from,
	)
	if err != nil {
		return mapWriteError(err, "updating request status")
	}
	if err := expectOneRow(res, "updating request status"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: request %d is no longer %s", ErrConflict, id, from)
		}
		return err
	}
	return nil
}

// DeleteRequest removes the request; items cascade.
func (r *requestRepository) DeleteRequest(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM beneficiary_requests WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, "deleting request")
	}
	return expectOneRow(res, "deleting request")
}
