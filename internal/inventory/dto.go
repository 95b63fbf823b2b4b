package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// ItemDTO exposes an inventory item in API responses.
type ItemDTO struct {
	ID             uuid.UUID            `json:"id"`
	ShopID         uuid.UUID            `json:"shop_id"`
	SKU            string               `json:"sku"`
	Name           string               `json:"name"`
	PriceCents     int                  `json:"price_cents"`
	StockQty       int                  `json:"stock_qty"`
	Category       string               `json:"category"`
	Tags           []string             `json:"tags"`
	Attributes     json.RawMessage      `json:"attributes,omitempty"`
	ApprovalStatus enums.ApprovalStatus `json:"approval_status"`
	Revision       json.RawMessage      `json:"revision,omitempty"`
	ReviewNote     *string              `json:"review_note,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// RevisionPayload is the partial-item document a merchant submits for review.
// Nil fields leave the live value untouched on approval.
type RevisionPayload struct {
	Name       *string         `json:"name,omitempty"`
	PriceCents *int            `json:"price_cents,omitempty"`
	StockQty   *int            `json:"stock_qty,omitempty"`
	Category   *string         `json:"category,omitempty"`
	Tags       *[]string       `json:"tags,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// FromModel maps the persisted item into a DTO.
func FromModel(m *models.InventoryItem) *ItemDTO {
	if m == nil {
		return nil
	}
	tags := make([]string, len(m.Tags))
	copy(tags, m.Tags)

	return &ItemDTO{
		ID:             m.ID,
		ShopID:         m.ShopID,
		SKU:            m.SKU,
		Name:           m.Name,
		PriceCents:     m.PriceCents,
		StockQty:       m.StockQty,
		Category:       m.Category,
		Tags:           tags,
		Attributes:     m.Attributes,
		ApprovalStatus: m.ApprovalStatus,
		Revision:       m.Revision,
		ReviewNote:     m.ReviewNote,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
