package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// UserDTO exposes a platform admin in API responses.
type UserDTO struct {
	ID        uuid.UUID       `json:"id"`
	Wallet    string          `json:"wallet"`
	Role      enums.AdminRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromModel maps the persisted admin user into a DTO.
func FromModel(m *models.AdminUser) *UserDTO {
	if m == nil {
		return nil
	}
	return &UserDTO{
		ID:        m.ID,
		Wallet:    m.Wallet,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
