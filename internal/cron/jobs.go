package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type sessionCloser interface {
	CloseSessionsOpenSince(ctx context.Context, cutoff, closedAt time.Time) (int64, error)
}

type discountSweeper interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionAutoclose ends work sessions left open longer than maxAge. A closed
// session keeps its recorded sales and tips; only the end timestamp is set.
type SessionAutoclose struct {
	repo   sessionCloser
	maxAge time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

// NewSessionAutoclose builds the stale-session job.
func NewSessionAutoclose(repo sessionCloser, maxAge time.Duration, logg *logger.Logger) (*SessionAutoclose, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("max session age must be positive")
	}
	return &SessionAutoclose{repo: repo, maxAge: maxAge, logg: logg, now: time.Now}, nil
}

func (j *SessionAutoclose) Name() string { return "work_session_autoclose" }

func (j *SessionAutoclose) Run(ctx context.Context) error {
	now := j.now().UTC()
	closed, err := j.repo.CloseSessionsOpenSince(ctx, now.Add(-j.maxAge), now)
	if err != nil {
		return fmt.Errorf("close stale sessions: %w", err)
	}
	if closed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "closed", closed), "stale work sessions closed")
	}
	return nil
}

// DiscountSweep deletes discounts whose window ended longer than retention
// ago. Recently expired rows are kept so shops can review or re-enable them.
type DiscountSweep struct {
	repo      discountSweeper
	retention time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

// NewDiscountSweep builds the expired-discount cleanup job.
func NewDiscountSweep(repo discountSweeper, retention time.Duration, logg *logger.Logger) (*DiscountSweep, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &DiscountSweep{repo: repo, retention: retention, logg: logg, now: time.Now}, nil
}

func (j *DiscountSweep) Name() string { return "discount_sweep" }

func (j *DiscountSweep) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep expired discounts: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "expired discounts removed")
	}
	return nil
}
