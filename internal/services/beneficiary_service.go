package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relief_backend/internal/models"
	"relief_backend/internal/repositories"
	"relief_backend/pkg/utils"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrBeneficiaryInUse    = errors.New("beneficiary still has requests")
)

// BeneficiaryPayload DTO is used for both create and update.
type BeneficiaryPayload struct {
	Name            string  `json:"name" binding:"required,max=200"`
	BeneficiaryType string  `json:"beneficiary_type" binding:"required"`
	ContactPerson   *string `json:"contact_person"`
	ContactNumber   *string `json:"contact_number"`
	Email           *string `json:"email"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	Province        *string `json:"province"`
	Notes           *string `json:"notes"`
}

// BeneficiaryService defines business logic for beneficiaries.
type BeneficiaryService interface {
	CreateBeneficiary(ctx context.Context, req BeneficiaryPayload) (*models.Beneficiary, error)
	GetBeneficiaryByID(ctx context.Context, id int64) (*models.Beneficiary, error)
	GetBeneficiaries(ctx context.Context, filters models.BeneficiaryFilters) ([]models.Beneficiary, int, error)
	UpdateBeneficiary(ctx context.Context, id int64, req BeneficiaryPayload) (*models.Beneficiary, error)
	DeleteBeneficiary(ctx context.Context, id int64) error
}

type beneficiaryService struct {
	repo repositories.BeneficiaryRepository
	tx   repositories.Transactor
}

// NewBeneficiaryService creates a new BeneficiaryService.
func NewBeneficiaryService(repo repositories.BeneficiaryRepository, tx repositories.Transactor) BeneficiaryService {
	return &beneficiaryService{repo: repo, tx: tx}
}

func (s *beneficiaryService) toModel(req BeneficiaryPayload) (*models.Beneficiary, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	bType := models.BeneficiaryType(strings.TrimSpace(req.BeneficiaryType))
	if !bType.Valid() {
		return nil, fmt.Errorf("%w: unknown beneficiary type '%s'", ErrValidation, req.BeneficiaryType)
	}
	if req.Email != nil && !utils.IsEmpty(*req.Email) && !utils.IsValidEmail(*req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return &models.Beneficiary{
		Name:            name,
		BeneficiaryType: bType,
		ContactPerson:   req.ContactPerson,
		ContactNumber:   req.ContactNumber,
		Email:           req.Email,
		Address:         req.Address,
		City:            req.City,
		Province:        req.Province,
		Notes:           req.Notes,
	}, nil
}

func (s *beneficiaryService) CreateBeneficiary(ctx context.Context, req BeneficiaryPayload) (*models.Beneficiary, error) {
	b, err := s.toModel(req)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateBeneficiary(ctx, s.tx.Executor(), b)
	if err != nil {
		return nil, fmt.Errorf("failed to create beneficiary: %w", err)
	}
	return s.GetBeneficiaryByID(ctx, id)
}

func (s *beneficiaryService) GetBeneficiaryByID(ctx context.Context, id int64) (*models.Beneficiary, error) {
	b, err := s.repo.GetBeneficiaryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}
	return b, nil
}

func (s *beneficiaryService) GetBeneficiaries(ctx context.Context, filters models.BeneficiaryFilters) ([]models.Beneficiary, int, error) {
	if filters.Type != nil && !models.BeneficiaryType(*filters.Type).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown beneficiary type '%s'", ErrValidation, *filters.Type)
	}
	list, total, err := s.repo.GetBeneficiaries(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	return list, total, nil
}

func (s *beneficiaryService) UpdateBeneficiary(ctx context.Context, id int64, req BeneficiaryPayload) (*models.Beneficiary, error) {
	b, err := s.toModel(req)
	if err != nil {
		return nil, err
	}
	b.ID = id
	if err := s.repo.UpdateBeneficiary(ctx, s.tx.Executor(), b); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("failed to update beneficiary: %w", err)
	}
	return s.GetBeneficiaryByID(ctx, id)
}

func (s *beneficiaryService) DeleteBeneficiary(ctx context.Context, id int64) error {
	err := s.repo.DeleteBeneficiary(ctx, s.tx.Executor(), id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrBeneficiaryNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrBeneficiaryInUse
	default:
		return fmt.Errorf("failed to delete beneficiary: %w", err)
	}
}
