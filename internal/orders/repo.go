package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/pagination"
)

// Repository handles order persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateWithTx persists the order and its line items in the transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(order).Error
}

// FindByID loads an order with line items, scoped to its shop.
func (r *Repository) FindByID(ctx context.Context, shopID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).
		Preload("LineItems").
		Where("id = ? AND shop_id = ?", orderID, shopID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByShop returns one cursor page of a shop's orders, newest first. The
// slice holds up to limit+1 rows so callers can detect the next page.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.DB(ctx).
		Preload("LineItems").
		Where("shop_id = ?", shopID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
