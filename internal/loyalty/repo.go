package loyalty

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
)

// Repository handles loyalty curve persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to loyalty operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByShop loads a shop's curve row.
func (r *Repository) FindByShop(ctx context.Context, shopID uuid.UUID) (*models.LoyaltyCurve, error) {
	var curve models.LoyaltyCurve
	if err := r.DB(ctx).Where("shop_id = ?", shopID).First(&curve).Error; err != nil {
		return nil, err
	}
	return &curve, nil
}

// Upsert writes the shop's curve, replacing any existing row.
func (r *Repository) Upsert(ctx context.Context, curve *models.LoyaltyCurve) error {
	if curve == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"base_xp", "growth_rate", "max_level", "updated_at"}),
		}).
		Create(curve).Error
}
