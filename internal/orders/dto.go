package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// LineItemDTO snapshots one priced cart line on a receipt.
type LineItemDTO struct {
	ID                uuid.UUID  `json:"id"`
	ItemID            uuid.UUID  `json:"item_id"`
	SKU               string     `json:"sku"`
	Name              string     `json:"name"`
	Qty               int        `json:"qty"`
	UnitPriceCents    int        `json:"unit_price_cents"`
	ChargedPriceCents int        `json:"charged_price_cents"`
	SavingsCents      int        `json:"savings_cents"`
	LineTotalCents    int        `json:"line_total_cents"`
	AppliedDiscountID *uuid.UUID `json:"applied_discount_id,omitempty"`
}

// OrderDTO exposes an order in API responses.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	ShopID        uuid.UUID         `json:"shop_id"`
	Status        enums.OrderStatus `json:"status"`
	SubtotalCents int               `json:"subtotal_cents"`
	SavingsCents  int               `json:"savings_cents"`
	CouponCode    *string           `json:"coupon_code,omitempty"`
	CouponCents   int               `json:"coupon_cents"`
	TotalCents    int               `json:"total_cents"`
	XPAwarded     int               `json:"xp_awarded"`
	MemberID      *uuid.UUID        `json:"member_id,omitempty"`
	LineItems     []LineItemDTO     `json:"line_items"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Page is one cursor-paginated slice of a shop's orders.
type Page struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted order into a DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	lines := make([]LineItemDTO, 0, len(m.LineItems))
	for _, li := range m.LineItems {
		lines = append(lines, LineItemDTO{
			ID:                li.ID,
			ItemID:            li.ItemID,
			SKU:               li.SKU,
			Name:              li.Name,
			Qty:               li.Qty,
			UnitPriceCents:    li.UnitPriceCents,
			ChargedPriceCents: li.ChargedPriceCents,
			SavingsCents:      li.SavingsCents,
			LineTotalCents:    li.LineTotalCents,
			AppliedDiscountID: li.AppliedDiscountID,
		})
	}
	return &OrderDTO{
		ID:            m.ID,
		ShopID:        m.ShopID,
		Status:        m.Status,
		SubtotalCents: m.SubtotalCents,
		SavingsCents:  m.SavingsCents,
		CouponCode:    m.CouponCode,
		CouponCents:   m.CouponCents,
		TotalCents:    m.TotalCents,
		XPAwarded:     m.XPAwarded,
		MemberID:      m.MemberID,
		LineItems:     lines,
		CreatedAt:     m.CreatedAt,
	}
}
