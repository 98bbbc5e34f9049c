package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"relief_backend/internal/allocation"
	"relief_backend/internal/models"
	"relief_backend/internal/repositories"
	"relief_backend/pkg/utils"
)

var ErrThresholdOverrideNotFound = errors.New("no threshold override for this item")

// ThresholdSource is the cache the threshold service reads through and invalidates.
type ThresholdSource interface {
	ThresholdProvider
	Invalidate(ctx context.Context)
	Base() allocation.ThresholdTable
}

// ThresholdPayload DTO
type ThresholdPayload struct {
	Critical int `json:"critical" binding:"gte=0"`
	Reorder  int `json:"reorder" binding:"gte=0"`
	Max      int `json:"max" binding:"gte=0"`
}

// ThresholdService exposes the effective thresholds and manages overrides.
type ThresholdService interface {
	GetEffectiveThresholds(ctx context.Context) ([]models.EffectiveThreshold, error)
	UpsertOverride(ctx context.Context, itemTypeName string, req ThresholdPayload) (*models.EffectiveThreshold, error)
	DeleteOverride(ctx context.Context, itemTypeName string) error
}

type thresholdService struct {
	repo   repositories.ThresholdRepository
	source ThresholdSource
	tx     repositories.Transactor
}

// NewThresholdService creates a new ThresholdService.
func NewThresholdService(repo repositories.ThresholdRepository, source ThresholdSource, tx repositories.Transactor) ThresholdService {
	return &thresholdService{repo: repo, source: source, tx: tx}
}

// ThresholdOverridesLoader adapts the repository to the cache's loader signature.
func ThresholdOverridesLoader(repo repositories.ThresholdRepository, base allocation.ThresholdTable) func(ctx context.Context) (allocation.ThresholdTable, error) {
	return func(ctx context.Context) (allocation.ThresholdTable, error) {
		overrides, err := repo.GetOverrides(ctx)
		if err != nil {
			return nil, err
		}
		table := make(allocation.ThresholdTable, len(overrides))
		for _, o := range overrides {
			table[canonicalItemName(base, o.ItemTypeName)] = allocation.Threshold{Critical: o.Critical, Reorder: o.Reorder, Max: o.Max}
		}
		return table, nil
	}
}

// canonicalItemName returns the built-in spelling of name when one matches case-insensitively.
func canonicalItemName(base allocation.ThresholdTable, name string) string {
	name = strings.TrimSpace(name)
	if _, ok := base[name]; ok {
		return name
	}
	for k := range base {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return name
}

func (s *thresholdService) GetEffectiveThresholds(ctx context.Context) ([]models.EffectiveThreshold, error) {
	table, err := s.source.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety thresholds: %w", err)
	}
	base := s.source.Base()
	list := make([]models.EffectiveThreshold, 0, len(table))
	for _, name := range table.Names() {
		t := table[name]
		builtin, ok := base[name]
		list = append(list, models.EffectiveThreshold{
			ItemTypeName: name,
			Threshold:    t,
			Overridden:   !ok || builtin != t,
		})
	}
	return list, nil
}

func (s *thresholdService) UpsertOverride(ctx context.Context, itemTypeName string, req ThresholdPayload) (*models.EffectiveThreshold, error) {
	if utils.IsEmpty(itemTypeName) {
		return nil, fmt.Errorf("%w: item type name is required", ErrValidation)
	}
	t := allocation.Threshold{Critical: req.Critical, Reorder: req.Reorder, Max: req.Max}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	name := canonicalItemName(s.source.Base(), itemTypeName)
	override := &models.ThresholdOverride{ItemTypeName: name, Critical: t.Critical, Reorder: t.Reorder, Max: t.Max}
	if err := s.repo.UpsertOverride(ctx, s.tx.Executor(), override); err != nil {
		return nil, fmt.Errorf("failed to save threshold override: %w", err)
	}
	s.source.Invalidate(ctx)

	utils.LogInfo("Safety threshold overridden", map[string]interface{}{
		"itemtype_name": name, "critical": t.Critical, "reorder": t.Reorder, "max": t.Max,
	})
	return &models.EffectiveThreshold{ItemTypeName: name, Threshold: t, Overridden: true}, nil
}

func (s *thresholdService) DeleteOverride(ctx context.Context, itemTypeName string) error {
	name := canonicalItemName(s.source.Base(), itemTypeName)
	if err := s.repo.DeleteOverride(ctx, s.tx.Executor(), name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrThresholdOverrideNotFound
		}
		return fmt.Errorf("failed to delete threshold override: %w", err)
	}
	s.source.Invalidate(ctx)
	utils.LogInfo("Safety threshold override removed", map[string]interface{}{"itemtype_name": name})
	return nil
}
