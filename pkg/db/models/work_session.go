package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkSession covers one clock-in/clock-out span for a team member.
type WorkSession struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID     uuid.UUID  `gorm:"column:shop_id;type:uuid;not null;index"`
	MemberID   uuid.UUID  `gorm:"column:member_id;type:uuid;not null;index"`
	StartedAt  time.Time  `gorm:"column:started_at;not null"`
	EndedAt    *time.Time `gorm:"column:ended_at"`
	SalesCents int        `gorm:"column:sales_cents;not null;default:0"`
	TipsCents  int        `gorm:"column:tips_cents;not null;default:0"`
	TipsPaid   bool       `gorm:"column:tips_paid;not null;default:false"`
	TipsPaidAt *time.Time `gorm:"column:tips_paid_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Open reports whether the session is still running.
func (s WorkSession) Open() bool {
	return s.EndedAt == nil
}
