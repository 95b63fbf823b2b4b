package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// AdminUser grants platform-level access to a wallet address.
type AdminUser struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Wallet    string          `gorm:"column:wallet;not null;uniqueIndex:ux_admin_users_wallet"`
	Role      enums.AdminRole `gorm:"column:role;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
