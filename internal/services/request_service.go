package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"
	"relief_backend/internal/repositories"
	"relief_backend/pkg/utils"
)

var (
	ErrRequestNotFound          = errors.New("beneficiary request not found")
	ErrInvalidRequestTransition = errors.New("invalid request status transition")
	ErrRequestNotDeletable      = errors.New("only pending or rejected requests can be deleted")
	ErrRequestInUse             = errors.New("request is referenced by a distribution plan")
	ErrItemTypeNotFound         = errors.New("item type not found")
)

// requestTransitions lists the allowed status changes. Fulfilled is final.
var requestTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestPending:  {models.RequestApproved, models.RequestRejected},
	models.RequestApproved: {models.RequestFulfilled, models.RequestRejected},
	models.RequestRejected: {models.RequestPending},
}

// ParseRequestStatus accepts any letter case.
func ParseRequestStatus(s string) (models.RequestStatus, bool) {
	for _, st := range []models.RequestStatus{models.RequestPending, models.RequestApproved, models.RequestFulfilled, models.RequestRejected} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func canTransitionRequest(from, to models.RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestItemPayload DTO
type RequestItemPayload struct {
	ItemTypeID        int64 `json:"itemtype_id" binding:"required,gt=0"`
	QuantityRequested int   `json:"quantity_requested" binding:"required,gt=0"`
}

// CreateRequestPayload DTO
type CreateRequestPayload struct {
	BeneficiaryID     int64                `json:"beneficiary_id" binding:"required,gt=0"`
	Purpose           string               `json:"purpose" binding:"required"`
	Urgency           string               `json:"urgency" binding:"required"`
	IndividualsServed int                  `json:"individuals_served" binding:"required,gte=1"`
	RequestDate       *string              `json:"request_date"` // YYYY-MM-DD, today if empty
	Notes             *string              `json:"notes"`
	Items             []RequestItemPayload `json:"items" binding:"required,min=1,dive"`
}

// UpdateRequestStatusPayload DTO
type UpdateRequestStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// RequestService defines business logic for beneficiary requests.
type RequestService interface {
	CreateRequest(ctx context.Context, req CreateRequestPayload, createdBy *int64) (*models.BeneficiaryRequest, error)
	GetRequestByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error)
	GetRequests(ctx context.Context, filters models.RequestFilters) ([]models.BeneficiaryRequest, int, error)
	UpdateRequestStatus(ctx context.Context, id int64, req UpdateRequestStatusPayload) (*models.BeneficiaryRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
}

type requestService struct {
	repo        repositories.RequestRepository
	tx          repositories.Transactor
	autoApprove bool
}

// NewRequestService creates a new RequestService. With autoApprove set,
// new requests start Approved instead of Pending.
func NewRequestService(repo repositories.RequestRepository, tx repositories.Transactor, autoApprove bool) RequestService {
	return &requestService{repo: repo, tx: tx, autoApprove: autoApprove}
}

func (s *requestService) CreateRequest(ctx context.Context, req CreateRequestPayload, createdBy *int64) (*models.BeneficiaryRequest, error) {
	urgency := allocation.Urgency(strings.TrimSpace(req.Urgency))
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: urgency must be one of Low, Medium, High, Critical", ErrValidation)
	}
	if req.IndividualsServed < 1 {
		return nil, fmt.Errorf("%w: individuals_served must be at least 1", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a request needs at least one item", ErrValidation)
	}
	for i, it := range req.Items {
		if it.QuantityRequested <= 0 {
			return nil, fmt.Errorf("%w: item %d: quantity_requested must be positive", ErrValidation, i+1)
		}
	}

	model := &models.BeneficiaryRequest{
		BeneficiaryID:     req.BeneficiaryID,
		Purpose:           strings.TrimSpace(req.Purpose),
		Urgency:           urgency,
		IndividualsServed: req.IndividualsServed,
		Status:            models.RequestPending,
		Notes:             req.Notes,
		CreatedBy:         createdBy,
	}
	if s.autoApprove {
		model.Status = models.RequestApproved
	}
	if req.RequestDate != nil && !utils.IsEmpty(*req.RequestDate) {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(*req.RequestDate))
		if err != nil {
			return nil, fmt.Errorf("%w: request_date must be YYYY-MM-DD", ErrValidation)
		}
		model.RequestDate = d
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.repo.CreateRequest(ctx, exec, model); err != nil {
			if errors.Is(err, repositories.ErrForeignKey) {
				return ErrBeneficiaryNotFound
			}
			return err
		}
		for _, it := range req.Items {
			item := models.RequestItem{RequestID: model.ID, ItemTypeID: it.ItemTypeID, QuantityRequested: it.QuantityRequested}
			if _, err := s.repo.CreateRequestItem(ctx, exec, &item); err != nil {
				if errors.Is(err, repositories.ErrForeignKey) {
					return fmt.Errorf("%w: id %d", ErrItemTypeNotFound, it.ItemTypeID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBeneficiaryNotFound) || errors.Is(err, ErrItemTypeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	utils.LogInfo("Beneficiary request created", map[string]interface{}{
		"request_id": model.ID, "beneficiary_id": model.BeneficiaryID, "status": model.Status, "items": len(req.Items),
	})
	return s.GetRequestByID(ctx, model.ID)
}

func (s *requestService) GetRequestByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error) {
	req, err := s.repo.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (s *requestService) GetRequests(ctx context.Context, filters models.RequestFilters) ([]models.BeneficiaryRequest, int, error) {
	if filters.Status != nil {
		st, ok := ParseRequestStatus(*filters.Status)
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown request status '%s'", ErrValidation, *filters.Status)
		}
		v := string(st)
		filters.Status = &v
	}
	if filters.Urgency != nil && !allocation.Urgency(*filters.Urgency).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown urgency '%s'", ErrValidation, *filters.Urgency)
	}
	list, total, err := s.repo.GetRequests(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return list, total, nil
}

func (s *requestService) UpdateRequestStatus(ctx context.Context, id int64, req UpdateRequestStatusPayload) (*models.BeneficiaryRequest, error) {
	to, ok := ParseRequestStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown request status '%s'", ErrValidation, req.Status)
	}
	current, err := s.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransitionRequest(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidRequestTransition, current.Status, to)
	}
	if err := s.repo.UpdateRequestStatus(ctx, s.tx.Executor(), id, current.Status, to); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequestTransition, err)
		}
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	utils.LogInfo("Request status changed", map[string]interface{}{"request_id": id, "from": current.Status, "to": to})
	return s.GetRequestByID(ctx, id)
}

func (s *requestService) DeleteRequest(ctx context.Context, id int64) error {
	current, err := s.GetRequestByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != models.RequestPending && current.Status != models.RequestRejected {
		return ErrRequestNotDeletable
	}
	err = s.repo.DeleteRequest(ctx, s.tx.Executor(), id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrRequestInUse
	default:
		return fmt.Errorf("failed to delete request: %w", err)
	}
}
