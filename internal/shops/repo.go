package shops

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
)

// Repository handles shop persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to shop operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new shop row.
func (r *Repository) Create(ctx context.Context, shop *models.Shop) error {
	return r.DB(ctx).Create(shop).Error
}

// FindByID loads a shop by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB(ctx).Where("id = ?", id).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindBySlug loads a shop by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB(ctx).Where("slug = ?", strings.ToLower(slug)).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindByDomain loads a shop by its custom domain.
func (r *Repository) FindByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.DB(ctx).Where("custom_domain = ?", strings.ToLower(domain)).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindByOwnerWallet returns all shops owned by the wallet.
func (r *Repository) FindByOwnerWallet(ctx context.Context, wallet string) ([]models.Shop, error) {
	var shops []models.Shop
	if err := r.DB(ctx).Where("owner_wallet = ?", wallet).Order("created_at ASC").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

// Update saves the provided shop.
func (r *Repository) Update(ctx context.Context, shop *models.Shop) error {
	if shop == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).Save(shop).Error
}

// Delete removes the shop row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Shop{}, "id = ?", id).Error
}
