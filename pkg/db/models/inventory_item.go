package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// UnlimitedStock marks an item that never sells out.
const UnlimitedStock = -1

// InventoryItem is a catalog entry scoped to one shop. Attributes carries
// industry-specific extras (restaurant modifiers, publishing metadata) and
// Revision holds the pending payload of the review workflow.
type InventoryItem struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID         uuid.UUID            `gorm:"column:shop_id;type:uuid;not null;index"`
	SKU            string               `gorm:"column:sku;not null;uniqueIndex:ux_inventory_shop_sku,priority:2"`
	Name           string               `gorm:"column:name;not null"`
	PriceCents     int                  `gorm:"column:price_cents;not null"`
	StockQty       int                  `gorm:"column:stock_qty;not null;default:0"`
	Category       string               `gorm:"column:category;not null;default:''"`
	Tags           pq.StringArray       `gorm:"column:tags;type:text[]"`
	Attributes     json.RawMessage      `gorm:"column:attributes;type:jsonb"`
	ApprovalStatus enums.ApprovalStatus `gorm:"column:approval_status;not null;default:'PENDING'"`
	Revision       json.RawMessage      `gorm:"column:revision;type:jsonb"`
	ReviewNote     *string              `gorm:"column:review_note"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// HasStock reports whether qty units can be sold.
func (i InventoryItem) HasStock(qty int) bool {
	if i.StockQty == UnlimitedStock {
		return true
	}
	return i.StockQty >= qty
}
