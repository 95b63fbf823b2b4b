package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// TeamMember is a shop employee who clocks in with a PIN.
type TeamMember struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID    uuid.UUID      `gorm:"column:shop_id;type:uuid;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	PINHash   string         `gorm:"column:pin_hash;not null"`
	Role      enums.TeamRole `gorm:"column:role;not null;default:'staff'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
