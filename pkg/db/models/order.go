package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Order is the persisted receipt produced by checkout. All monetary totals
// are cents and were computed server-side by the pricing engine.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID        uuid.UUID         `gorm:"column:shop_id;type:uuid;not null;index"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	SubtotalCents int               `gorm:"column:subtotal_cents;not null"`
	SavingsCents  int               `gorm:"column:savings_cents;not null;default:0"`
	CouponCode    *string           `gorm:"column:coupon_code"`
	CouponCents   int               `gorm:"column:coupon_cents;not null;default:0"`
	TotalCents    int               `gorm:"column:total_cents;not null"`
	XPAwarded     int               `gorm:"column:xp_awarded;not null;default:0"`
	MemberID      *uuid.UUID        `gorm:"column:member_id;type:uuid"`
	LineItems     []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem snapshots one cart line at checkout time.
type OrderLineItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID             uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	SKU                string    `gorm:"column:sku;not null"`
	Name               string    `gorm:"column:name;not null"`
	Qty                int       `gorm:"column:qty;not null"`
	UnitPriceCents     int       `gorm:"column:unit_price_cents;not null"`
	ChargedPriceCents  int       `gorm:"column:charged_price_cents;not null"`
	SavingsCents       int       `gorm:"column:savings_cents;not null;default:0"`
	LineTotalCents     int       `gorm:"column:line_total_cents;not null"`
	AppliedDiscountID  *uuid.UUID `gorm:"column:applied_discount_id;type:uuid"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}
