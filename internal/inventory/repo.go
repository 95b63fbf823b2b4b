package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Repository handles inventory persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new item row.
func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.DB(ctx).Create(item).Error
}

// FindByID loads an item scoped to its shop.
func (r *Repository) FindByID(ctx context.Context, shopID, itemID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB(ctx).Where("id = ? AND shop_id = ?", itemID, shopID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByShop returns all items for a shop, optionally filtered by approval
// status.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, status *enums.ApprovalStatus) ([]models.InventoryItem, error) {
	query := r.DB(ctx).Where("shop_id = ?", shopID).Order("created_at ASC")
	if status != nil {
		query = query.Where("approval_status = ?", *status)
	}
	var items []models.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByIDs loads items by id without locking. Used for read-only quotes.
func (r *Repository) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.DB(ctx).Where("shop_id = ? AND id IN ?", shopID, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByIDsWithTx loads items by id inside the provided transaction, locking
// the rows for the duration of the transaction.
func (r *Repository) FindByIDsWithTx(tx *gorm.DB, shopID uuid.UUID, ids []uuid.UUID) ([]models.InventoryItem, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var items []models.InventoryItem
	if err := tx.
		Clauses(forUpdateClause()).
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Update saves the provided item.
func (r *Repository) Update(ctx context.Context, item *models.InventoryItem) error {
	if item == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).Save(item).Error
}

// Delete removes the item row.
func (r *Repository) Delete(ctx context.Context, shopID, itemID uuid.UUID) error {
	result := r.DB(ctx).Delete(&models.InventoryItem{}, "id = ? AND shop_id = ?", itemID, shopID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStockWithTx atomically removes qty units. Unlimited stock (-1)
// rows are untouched. Returns false when the row has too little stock.
func (r *Repository) DecrementStockWithTx(tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	result := tx.Model(&models.InventoryItem{}).
		Where("id = ? AND (stock_qty = ? OR stock_qty >= ?)", itemID, models.UnlimitedStock, qty).
		Update("stock_qty", gorm.Expr(
			"CASE WHEN stock_qty = ? THEN stock_qty ELSE stock_qty - ? END",
			models.UnlimitedStock, qty,
		))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func forUpdateClause() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}
