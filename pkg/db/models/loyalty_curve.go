package models

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyCurve stores a shop's XP growth-curve parameters. Shops without a
// row fall back to the platform defaults from config.
type LoyaltyCurve struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID     uuid.UUID `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:ux_loyalty_curves_shop"`
	BaseXP     int       `gorm:"column:base_xp;not null"`
	GrowthRate float64   `gorm:"column:growth_rate;not null"`
	MaxLevel   int       `gorm:"column:max_level;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
