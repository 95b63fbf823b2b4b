package packages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Repository handles package job persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to package job operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new job row.
func (r *Repository) Create(ctx context.Context, job *models.PackageJob) error {
	return r.DB(ctx).Create(job).Error
}

// FindByID loads a job by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PackageJob, error) {
	var job models.PackageJob
	if err := r.DB(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByShop returns a shop's jobs, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.PackageJob, error) {
	var jobs []models.PackageJob
	err := r.DB(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListByStatus returns jobs in the given status, oldest first so recovered
// work replays in submission order.
func (r *Repository) ListByStatus(ctx context.Context, status enums.PackageJobStatus) ([]models.PackageJob, error) {
	var jobs []models.PackageJob
	err := r.DB(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update persists the job row.
func (r *Repository) Update(ctx context.Context, job *models.PackageJob) error {
	return r.DB(ctx).Save(job).Error
}
