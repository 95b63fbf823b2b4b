package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderwoods/shopkit-backend/pkg/types"
)

// Shop represents the canonical tenant document. Each merchant is identified
// by wallet address and addressable by slug or custom domain.
type Shop struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerWallet  string         `gorm:"column:owner_wallet;not null;uniqueIndex:ux_shops_owner_wallet"`
	Name         string         `gorm:"column:name;not null"`
	Slug         string         `gorm:"column:slug;not null;uniqueIndex:ux_shops_slug"`
	CustomDomain *string        `gorm:"column:custom_domain;uniqueIndex:ux_shops_custom_domain"`
	Bio          *string        `gorm:"column:bio"`
	Arrangement  pq.StringArray `gorm:"column:arrangement;type:text[]"`
	Theme        types.Theme    `gorm:"column:theme;type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
