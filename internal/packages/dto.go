package packages

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// JobDTO exposes an installer generation job in API responses.
type JobDTO struct {
	ID           uuid.UUID              `json:"id"`
	ShopID       *uuid.UUID             `json:"shop_id,omitempty"`
	Kind         enums.PackageKind      `json:"kind"`
	Status       enums.PackageJobStatus `json:"status"`
	Progress     int                    `json:"progress"`
	ArtifactURL  *string                `json:"artifact_url,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	RequestedBy  string                 `json:"requested_by"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ProgressUpdate is the live progress document kept in redis and streamed to
// SSE clients. The sasUrl field carries the artifact link once the build
// completes.
type ProgressUpdate struct {
	Progress int                    `json:"progress"`
	Status   enums.PackageJobStatus `json:"status"`
	SasURL   string                 `json:"sasUrl,omitempty"`
}

// FromModel maps the persisted job into a DTO.
func FromModel(m *models.PackageJob) *JobDTO {
	if m == nil {
		return nil
	}
	return &JobDTO{
		ID:           m.ID,
		ShopID:       m.ShopID,
		Kind:         m.Kind,
		Status:       m.Status,
		Progress:     m.Progress,
		ArtifactURL:  m.ArtifactURL,
		ErrorMessage: m.ErrorMessage,
		RequestedBy:  m.RequestedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
