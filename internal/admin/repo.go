package admin

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Repository handles admin user persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to admin operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new admin row.
func (r *Repository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.DB(ctx).Create(user).Error
}

// FindByWallet loads an admin by wallet address.
func (r *Repository) FindByWallet(ctx context.Context, wallet string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.DB(ctx).Where("wallet = ?", strings.TrimSpace(wallet)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all admin users.
func (r *Repository) List(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	if err := r.DB(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByWalletWithTx loads an admin using the provided transaction.
func (r *Repository) FindByWalletWithTx(tx *gorm.DB, wallet string) (*models.AdminUser, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var user models.AdminUser
	if err := tx.Where("wallet = ?", strings.TrimSpace(wallet)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CountWithRoleWithTx counts admins holding role inside the transaction.
func (r *Repository) CountWithRoleWithTx(tx *gorm.DB, role enums.AdminRole) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var count int64
	err := tx.Model(&models.AdminUser{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// UpdateWithTx persists the admin using the provided transaction.
func (r *Repository) UpdateWithTx(tx *gorm.DB, user *models.AdminUser) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if user == nil {
		return gorm.ErrInvalidData
	}
	return tx.Save(user).Error
}

// DeleteWithTx removes the admin using the provided transaction.
func (r *Repository) DeleteWithTx(tx *gorm.DB, wallet string) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	result := tx.Delete(&models.AdminUser{}, "wallet = ?", strings.TrimSpace(wallet))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
