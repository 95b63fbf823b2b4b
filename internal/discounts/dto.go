package discounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// DiscountDTO exposes a discount in API responses. Status is derived from the
// schedule window at read time, never stored.
type DiscountDTO struct {
	ID                  uuid.UUID            `json:"id"`
	ShopID              uuid.UUID            `json:"shop_id"`
	Name                string               `json:"name"`
	Type                enums.DiscountType   `json:"type"`
	Scope               enums.DiscountScope  `json:"scope"`
	AppliesToIDs        []string             `json:"applies_to_ids,omitempty"`
	MinRequirement      enums.MinRequirement `json:"min_requirement"`
	MinRequirementValue int                  `json:"min_requirement_value"`
	Value               int                  `json:"value"`
	BuyQty              int                  `json:"buy_qty,omitempty"`
	GetQty              int                  `json:"get_qty,omitempty"`
	Code                *string              `json:"code,omitempty"`
	Status              enums.DiscountStatus `json:"status"`
	StartsAt            *time.Time           `json:"starts_at,omitempty"`
	EndsAt              *time.Time           `json:"ends_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// StatusAt derives the lifecycle status from the schedule window.
func StatusAt(d models.Discount, now time.Time) enums.DiscountStatus {
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return enums.DiscountStatusScheduled
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return enums.DiscountStatusExpired
	}
	return enums.DiscountStatusActive
}

// FromModel maps the persisted discount into a DTO, deriving status at now.
func FromModel(m *models.Discount, now time.Time) *DiscountDTO {
	if m == nil {
		return nil
	}
	appliesTo := make([]string, len(m.AppliesToIDs))
	copy(appliesTo, m.AppliesToIDs)

	return &DiscountDTO{
		ID:                  m.ID,
		ShopID:              m.ShopID,
		Name:                m.Name,
		Type:                m.Type,
		Scope:               m.Scope,
		AppliesToIDs:        appliesTo,
		MinRequirement:      m.MinRequirement,
		MinRequirementValue: m.MinRequirementValue,
		Value:               m.Value,
		BuyQty:              m.BuyQty,
		GetQty:              m.GetQty,
		Code:                m.Code,
		Status:              StatusAt(*m, now),
		StartsAt:            m.StartsAt,
		EndsAt:              m.EndsAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
