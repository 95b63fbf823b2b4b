package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
)

type curveRepository interface {
	FindByShop(ctx context.Context, shopID uuid.UUID) (*models.LoyaltyCurve, error)
	Upsert(ctx context.Context, curve *models.LoyaltyCurve) error
}

// ConfigDTO is the curve configuration returned to merchants. Default marks
// the platform fallback when the shop has no row of its own.
type ConfigDTO struct {
	ShopID  uuid.UUID `json:"shop_id"`
	Curve   Curve     `json:"curve"`
	Default bool      `json:"default"`
}

// Service exposes loyalty curve configuration and progress computation.
type Service interface {
	GetConfig(ctx context.Context, shopID uuid.UUID) (*ConfigDTO, error)
	UpdateConfig(ctx context.Context, shopID uuid.UUID, curve Curve) (*ConfigDTO, error)
	Profile(ctx context.Context, shopID uuid.UUID, xp int) (*Progress, error)
}

type service struct {
	repo     curveRepository
	defaults config.LoyaltyConfig
}

// NewService builds a loyalty service with the provided repository.
func NewService(repo curveRepository, defaults config.LoyaltyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	return &service{repo: repo, defaults: defaults}, nil
}

func (s *service) GetConfig(ctx context.Context, shopID uuid.UUID) (*ConfigDTO, error) {
	row, err := s.repo.FindByShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ConfigDTO{ShopID: shopID, Curve: s.platformCurve(), Default: true}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty curve")
	}
	return &ConfigDTO{
		ShopID: shopID,
		Curve:  Curve{BaseXP: row.BaseXP, GrowthRate: row.GrowthRate, MaxLevel: row.MaxLevel},
	}, nil
}

func (s *service) UpdateConfig(ctx context.Context, shopID uuid.UUID, curve Curve) (*ConfigDTO, error) {
	if curve.BaseXP <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_xp must be positive")
	}
	if curve.GrowthRate < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "growth_rate must be at least 1")
	}
	if curve.MaxLevel < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_level must be at least 1")
	}

	row := &models.LoyaltyCurve{
		ShopID:     shopID,
		BaseXP:     curve.BaseXP,
		GrowthRate: curve.GrowthRate,
		MaxLevel:   curve.MaxLevel,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save loyalty curve")
	}
	return &ConfigDTO{ShopID: shopID, Curve: curve}, nil
}

func (s *service) Profile(ctx context.Context, shopID uuid.UUID, xp int) (*Progress, error) {
	if xp < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "xp cannot be negative")
	}
	cfg, err := s.GetConfig(ctx, shopID)
	if err != nil {
		return nil, err
	}
	progress := cfg.Curve.ProgressFor(xp)
	return &progress, nil
}

func (s *service) platformCurve() Curve {
	return Curve{
		BaseXP:     s.defaults.DefaultBaseXP,
		GrowthRate: s.defaults.DefaultGrowthRate,
		MaxLevel:   s.defaults.DefaultMaxLevel,
	}
}
