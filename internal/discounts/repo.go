package discounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
)

// Repository handles discount persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to discount operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new discount row.
func (r *Repository) Create(ctx context.Context, discount *models.Discount) error {
	return r.DB(ctx).Create(discount).Error
}

// FindByID loads a discount scoped to its shop.
func (r *Repository) FindByID(ctx context.Context, shopID, discountID uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	if err := r.DB(ctx).Where("id = ? AND shop_id = ?", discountID, shopID).First(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// FindByCode loads a coupon by its redemption code, case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, shopID uuid.UUID, code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.DB(ctx).
		Where("shop_id = ? AND code = ?", shopID, strings.ToUpper(strings.TrimSpace(code))).
		First(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// ListByShop returns all discounts for a shop, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Discount, error) {
	var rows []models.Discount
	if err := r.DB(ctx).Where("shop_id = ?", shopID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCurrent returns discounts whose schedule window covers now.
func (r *Repository) ListCurrent(ctx context.Context, shopID uuid.UUID, now time.Time) ([]models.Discount, error) {
	var rows []models.Discount
	if err := r.DB(ctx).
		Where("shop_id = ?", shopID).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided discount.
func (r *Repository) Update(ctx context.Context, discount *models.Discount) error {
	if discount == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).Save(discount).Error
}

// Delete removes the discount row.
func (r *Repository) Delete(ctx context.Context, shopID, discountID uuid.UUID) error {
	result := r.DB(ctx).Delete(&models.Discount{}, "id = ? AND shop_id = ?", discountID, shopID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteExpiredBefore hard-deletes discounts whose window closed before the
// cutoff. Used by the retention sweep.
func (r *Repository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).
		Where("ends_at IS NOT NULL AND ends_at < ?", cutoff).
		Delete(&models.Discount{})
	return result.RowsAffected, result.Error
}
