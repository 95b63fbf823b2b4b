package shops

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/types"
)

// ShopDTO exposes tenant data in API responses.
type ShopDTO struct {
	ID           uuid.UUID   `json:"id"`
	OwnerWallet  string      `json:"owner_wallet"`
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	CustomDomain *string     `json:"custom_domain,omitempty"`
	Bio          *string     `json:"bio,omitempty"`
	Arrangement  []string    `json:"arrangement"`
	Theme        types.Theme `json:"theme"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BrandingDTO is the public branding payload served to storefronts. FaviconURL
// is always populated via the resolution cascade.
type BrandingDTO struct {
	ShopID       uuid.UUID `json:"shop_id"`
	Name         string    `json:"name"`
	PrimaryColor string    `json:"primary_color"`
	LogoURL      string    `json:"logo_url"`
	FaviconURL   string    `json:"favicon_url"`
	LayoutMode   string    `json:"layout_mode"`
}

// FromModel maps the persisted shop into a DTO.
func FromModel(m *models.Shop) *ShopDTO {
	if m == nil {
		return nil
	}
	arrangement := make([]string, len(m.Arrangement))
	copy(arrangement, m.Arrangement)

	return &ShopDTO{
		ID:           m.ID,
		OwnerWallet:  m.OwnerWallet,
		Name:         m.Name,
		Slug:         m.Slug,
		CustomDomain: m.CustomDomain,
		Bio:          m.Bio,
		Arrangement:  arrangement,
		Theme:        m.Theme,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
