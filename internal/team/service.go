package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
	"github.com/calderwoods/shopkit-backend/pkg/security"
)

type teamRepository interface {
	CreateMember(ctx context.Context, member *models.TeamMember) error
	FindMemberByID(ctx context.Context, shopID, memberID uuid.UUID) (*models.TeamMember, error)
	ListMembers(ctx context.Context, shopID uuid.UUID) ([]models.TeamMember, error)
	UpdateMember(ctx context.Context, member *models.TeamMember) error
	DeleteMember(ctx context.Context, shopID, memberID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.WorkSession) error
	FindSessionByID(ctx context.Context, shopID, sessionID uuid.UUID) (*models.WorkSession, error)
	FindOpenSession(ctx context.Context, memberID uuid.UUID) (*models.WorkSession, error)
	ListSessions(ctx context.Context, shopID, memberID uuid.UUID) ([]models.WorkSession, error)
	UpdateSession(ctx context.Context, session *models.WorkSession) error
	UpdateSessionWithTx(tx *gorm.DB, session *models.WorkSession) error
	CountOpenSessions(ctx context.Context, memberID uuid.UUID) (int64, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateMemberInput holds creation-time data for a new member.
type CreateMemberInput struct {
	Name string
	Role enums.TeamRole
	PIN  string
}

// UpdateMemberInput captures the mutable member fields. A non-nil PIN is
// re-validated and re-hashed.
type UpdateMemberInput struct {
	Name *string
	Role *enums.TeamRole
	PIN  *string
}

// CloseSessionInput carries clock-out data.
type CloseSessionInput struct {
	TipsCents *int
}

// Service exposes team member and work session operations.
type Service interface {
	CreateMember(ctx context.Context, shopID uuid.UUID, input CreateMemberInput) (*MemberDTO, error)
	GetMember(ctx context.Context, shopID, memberID uuid.UUID) (*MemberDTO, error)
	ListMembers(ctx context.Context, shopID uuid.UUID) ([]MemberDTO, error)
	UpdateMember(ctx context.Context, shopID, memberID uuid.UUID, input UpdateMemberInput) (*MemberDTO, error)
	DeleteMember(ctx context.Context, shopID, memberID uuid.UUID) error
	VerifyPIN(ctx context.Context, shopID, memberID uuid.UUID, pin, clientIP string) (*MemberDTO, error)
	ClockIn(ctx context.Context, shopID, memberID uuid.UUID) (*SessionDTO, error)
	CloseSession(ctx context.Context, shopID, sessionID uuid.UUID, input CloseSessionInput) (*SessionDTO, error)
	MarkTipsPaid(ctx context.Context, actorWallet string, shopID, sessionID uuid.UUID) (*SessionDTO, error)
	ListSessions(ctx context.Context, shopID, memberID uuid.UUID) ([]SessionDTO, error)
}

type service struct {
	repo    teamRepository
	limiter rateLimiter
	tx      txRunner
	events  eventEmitter
	pinCfg  config.PINConfig
	rlCfg   config.PINRateLimitConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a team service with the provided dependencies.
func NewService(repo teamRepository, limiter rateLimiter, tx txRunner, events eventEmitter, pinCfg config.PINConfig, rlCfg config.PINRateLimitConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("team repository required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:    repo,
		limiter: limiter,
		tx:      tx,
		events:  events,
		pinCfg:  pinCfg,
		rlCfg:   rlCfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) CreateMember(ctx context.Context, shopID uuid.UUID, input CreateMemberInput) (*MemberDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name is required")
	}
	role := input.Role
	if role == "" {
		role = enums.TeamRoleStaff
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid team role")
	}
	if err := security.ValidatePIN(input.PIN); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	hash, err := security.HashPIN(input.PIN, s.pinCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}

	member := &models.TeamMember{
		ShopID:  shopID,
		Name:    name,
		PINHash: hash,
		Role:    role,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return MemberFromModel(member), nil
}

func (s *service) GetMember(ctx context.Context, shopID, memberID uuid.UUID) (*MemberDTO, error) {
	member, err := s.loadMember(ctx, shopID, memberID)
	if err != nil {
		return nil, err
	}
	return MemberFromModel(member), nil
}

func (s *service) ListMembers(ctx context.Context, shopID uuid.UUID) ([]MemberDTO, error) {
	members, err := s.repo.ListMembers(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	out := make([]MemberDTO, 0, len(members))
	for i := range members {
		out = append(out, *MemberFromModel(&members[i]))
	}
	return out, nil
}

func (s *service) UpdateMember(ctx context.Context, shopID, memberID uuid.UUID, input UpdateMemberInput) (*MemberDTO, error) {
	member, err := s.loadMember(ctx, shopID, memberID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name cannot be empty")
		}
		member.Name = name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid team role")
		}
		member.Role = *input.Role
	}
	if input.PIN != nil {
		if err := security.ValidatePIN(*input.PIN); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		hash, err := security.HashPIN(*input.PIN, s.pinCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
		}
		member.PINHash = hash
	}

	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}
	return MemberFromModel(member), nil
}

// DeleteMember refuses to remove anyone who is still clocked in.
func (s *service) DeleteMember(ctx context.Context, shopID, memberID uuid.UUID) error {
	if _, err := s.loadMember(ctx, shopID, memberID); err != nil {
		return err
	}

	open, err := s.repo.CountOpenSessions(ctx, memberID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open sessions")
	}
	if open > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "member has an open work session")
	}

	if err := s.repo.DeleteMember(ctx, shopID, memberID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
	}
	return nil
}

// VerifyPIN checks the candidate PIN under fixed-window rate limits keyed by
// member and by client IP.
func (s *service) VerifyPIN(ctx context.Context, shopID, memberID uuid.UUID, pin, clientIP string) (*MemberDTO, error) {
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "pin:member:"+memberID.String(), int64(s.rlCfg.MemberLimit), s.rlCfg.Window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many pin attempts for this member")
	}
	if clientIP != "" {
		allowed, _, err = s.limiter.FixedWindowAllow(ctx, "pin:ip:"+clientIP, int64(s.rlCfg.IPLimit), s.rlCfg.Window)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many pin attempts from this address")
		}
	}

	member, err := s.loadMember(ctx, shopID, memberID)
	if err != nil {
		return nil, err
	}

	ok, err := security.VerifyPIN(pin, member.PINHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect pin")
	}
	return MemberFromModel(member), nil
}

// ClockIn opens a new work session. One open session per member.
func (s *service) ClockIn(ctx context.Context, shopID, memberID uuid.UUID) (*SessionDTO, error) {
	member, err := s.loadMember(ctx, shopID, memberID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindOpenSession(ctx, memberID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "member is already clocked in")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open session")
	}

	session := &models.WorkSession{
		ShopID:    shopID,
		MemberID:  member.ID,
		StartedAt: s.now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return SessionFromModel(session), nil
}

// CloseSession clocks the member out, optionally recording final tips.
func (s *service) CloseSession(ctx context.Context, shopID, sessionID uuid.UUID, input CloseSessionInput) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already closed")
	}
	if input.TipsCents != nil {
		if *input.TipsCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tips cannot be negative")
		}
		session.TipsCents = *input.TipsCents
	}

	endedAt := s.now()
	session.EndedAt = &endedAt

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close session")
	}
	return SessionFromModel(session), nil
}

// MarkTipsPaid flags a closed session's tips as settled and emits
// work_session.tips_paid.
func (s *service) MarkTipsPaid(ctx context.Context, actorWallet string, shopID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Open() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is still open")
	}
	if session.TipsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tips already paid")
	}

	paidAt := s.now()
	session.TipsPaid = true
	session.TipsPaidAt = &paidAt

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateSessionWithTx(tx, session); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTipsPaid,
			AggregateType: enums.OutboxAggregateWorkSession,
			AggregateID:   session.ID,
			Actor:         &outbox.ActorRef{Wallet: actorWallet, ShopID: &shopID},
			Data:          SessionFromModel(session),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark tips paid")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"session_id": session.ID.String(),
			"tips_cents": session.TipsCents,
		}), "work session tips paid")
	}
	return SessionFromModel(session), nil
}

func (s *service) ListSessions(ctx context.Context, shopID, memberID uuid.UUID) ([]SessionDTO, error) {
	sessions, err := s.repo.ListSessions(ctx, shopID, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sessions")
	}
	out := make([]SessionDTO, 0, len(sessions))
	for i := range sessions {
		out = append(out, *SessionFromModel(&sessions[i]))
	}
	return out, nil
}

func (s *service) loadMember(ctx context.Context, shopID, memberID uuid.UUID) (*models.TeamMember, error) {
	member, err := s.repo.FindMemberByID(ctx, shopID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

func (s *service) loadSession(ctx context.Context, shopID, sessionID uuid.UUID) (*models.WorkSession, error) {
	session, err := s.repo.FindSessionByID(ctx, shopID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
}
