package team

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/repo"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
)

// Repository handles team member and work session persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to team operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateMember persists a new member row.
func (r *Repository) CreateMember(ctx context.Context, member *models.TeamMember) error {
	return r.DB(ctx).Create(member).Error
}

// FindMemberByID loads a member scoped to its shop.
func (r *Repository) FindMemberByID(ctx context.Context, shopID, memberID uuid.UUID) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.DB(ctx).Where("id = ? AND shop_id = ?", memberID, shopID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns all members for a shop.
func (r *Repository) ListMembers(ctx context.Context, shopID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.DB(ctx).Where("shop_id = ?", shopID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMember saves the provided member.
func (r *Repository) UpdateMember(ctx context.Context, member *models.TeamMember) error {
	if member == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).Save(member).Error
}

// DeleteMember removes the member row.
func (r *Repository) DeleteMember(ctx context.Context, shopID, memberID uuid.UUID) error {
	result := r.DB(ctx).Delete(&models.TeamMember{}, "id = ? AND shop_id = ?", memberID, shopID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateSession persists a new work session row.
func (r *Repository) CreateSession(ctx context.Context, session *models.WorkSession) error {
	return r.DB(ctx).Create(session).Error
}

// FindSessionByID loads a session scoped to its shop.
func (r *Repository) FindSessionByID(ctx context.Context, shopID, sessionID uuid.UUID) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := r.DB(ctx).Where("id = ? AND shop_id = ?", sessionID, shopID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOpenSession returns the member's open session, if any.
func (r *Repository) FindOpenSession(ctx context.Context, memberID uuid.UUID) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := r.DB(ctx).
		Where("member_id = ? AND ended_at IS NULL", memberID).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns a member's sessions, newest first.
func (r *Repository) ListSessions(ctx context.Context, shopID, memberID uuid.UUID) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	if err := r.DB(ctx).
		Where("shop_id = ? AND member_id = ?", shopID, memberID).
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateSession saves the provided session.
func (r *Repository) UpdateSession(ctx context.Context, session *models.WorkSession) error {
	if session == nil {
		return gorm.ErrInvalidData
	}
	return r.DB(ctx).Save(session).Error
}

// UpdateSessionWithTx persists the session using the provided transaction.
func (r *Repository) UpdateSessionWithTx(tx *gorm.DB, session *models.WorkSession) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if session == nil {
		return gorm.ErrInvalidData
	}
	return tx.Save(session).Error
}

// AddSalesWithTx adds cents to the member's open session inside a checkout
// transaction. Returns false when the member is not clocked in.
func (r *Repository) AddSalesWithTx(tx *gorm.DB, memberID uuid.UUID, salesCents, tipsCents int) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	result := tx.Model(&models.WorkSession{}).
		Where("member_id = ? AND ended_at IS NULL", memberID).
		Updates(map[string]any{
			"sales_cents": gorm.Expr("sales_cents + ?", salesCents),
			"tips_cents":  gorm.Expr("tips_cents + ?", tipsCents),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountOpenSessions reports how many open sessions a member has.
func (r *Repository) CountOpenSessions(ctx context.Context, memberID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.WorkSession{}).
		Where("member_id = ? AND ended_at IS NULL", memberID).
		Count(&count).Error
	return count, err
}

// CloseSessionsOpenSince force-closes sessions that started before the
// cutoff. Used by the nightly autoclose job.
func (r *Repository) CloseSessionsOpenSince(ctx context.Context, cutoff, closedAt time.Time) (int64, error) {
	result := r.DB(ctx).Model(&models.WorkSession{}).
		Where("ended_at IS NULL AND started_at < ?", cutoff).
		Update("ended_at", closedAt)
	return result.RowsAffected, result.Error
}
