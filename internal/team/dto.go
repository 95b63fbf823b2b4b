package team

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// MemberDTO exposes a team member without the PIN hash.
type MemberDTO struct {
	ID        uuid.UUID      `json:"id"`
	ShopID    uuid.UUID      `json:"shop_id"`
	Name      string         `json:"name"`
	Role      enums.TeamRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SessionDTO exposes one work session.
type SessionDTO struct {
	ID         uuid.UUID  `json:"id"`
	ShopID     uuid.UUID  `json:"shop_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	SalesCents int        `json:"sales_cents"`
	TipsCents  int        `json:"tips_cents"`
	TipsPaid   bool       `json:"tips_paid"`
	TipsPaidAt *time.Time `json:"tips_paid_at,omitempty"`
}

// MemberFromModel maps the persisted member into a DTO.
func MemberFromModel(m *models.TeamMember) *MemberDTO {
	if m == nil {
		return nil
	}
	return &MemberDTO{
		ID:        m.ID,
		ShopID:    m.ShopID,
		Name:      m.Name,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// SessionFromModel maps the persisted session into a DTO.
func SessionFromModel(m *models.WorkSession) *SessionDTO {
	if m == nil {
		return nil
	}
	return &SessionDTO{
		ID:         m.ID,
		ShopID:     m.ShopID,
		MemberID:   m.MemberID,
		StartedAt:  m.StartedAt,
		EndedAt:    m.EndedAt,
		SalesCents: m.SalesCents,
		TipsCents:  m.TipsCents,
		TipsPaid:   m.TipsPaid,
		TipsPaidAt: m.TipsPaidAt,
	}
}
