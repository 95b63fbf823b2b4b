package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// PackageJob records one installer-generation run. Live progress is kept in
// redis; the row is the durable record.
type PackageJob struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID       *uuid.UUID             `gorm:"column:shop_id;type:uuid"`
	Kind         enums.PackageKind      `gorm:"column:kind;not null"`
	Status       enums.PackageJobStatus `gorm:"column:status;not null;default:'queued'"`
	Progress     int                    `gorm:"column:progress;not null;default:0"`
	ArtifactURL  *string                `gorm:"column:artifact_url"`
	ErrorMessage *string                `gorm:"column:error_message"`
	RequestedBy  string                 `gorm:"column:requested_by;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
