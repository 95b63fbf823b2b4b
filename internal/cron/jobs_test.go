package cron

import (
	"context"
	"testing"
	"time"
)

type stubSessionCloser struct {
	cutoff   time.Time
	closedAt time.Time
	closed   int64
}

func (s *stubSessionCloser) CloseSessionsOpenSince(_ context.Context, cutoff, closedAt time.Time) (int64, error) {
	s.cutoff = cutoff
	s.closedAt = closedAt
	return s.closed, nil
}

type stubDiscountSweeper struct {
	cutoff  time.Time
	deleted int64
}

func (s *stubDiscountSweeper) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, nil
}

func TestSessionAutocloseCutoff(t *testing.T) {
	repo := &stubSessionCloser{closed: 3}
	job, err := NewSessionAutoclose(repo, 16*time.Hour, testLogger())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-16 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, repo.cutoff)
	}
	if !repo.closedAt.Equal(now) {
		t.Fatalf("expected sessions closed at %v, got %v", now, repo.closedAt)
	}
}

func TestDiscountSweepCutoff(t *testing.T) {
	repo := &stubDiscountSweeper{deleted: 2}
	job, err := NewDiscountSweep(repo, 90*24*time.Hour, testLogger())
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-90 * 24 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, repo.cutoff)
	}
}

func TestJobConstructorsValidate(t *testing.T) {
	if _, err := NewSessionAutoclose(nil, time.Hour, testLogger()); err == nil {
		t.Fatal("expected error for missing repo")
	}
	if _, err := NewSessionAutoclose(&stubSessionCloser{}, 0, testLogger()); err == nil {
		t.Fatal("expected error for zero max age")
	}
	if _, err := NewDiscountSweep(&stubDiscountSweeper{}, 0, testLogger()); err == nil {
		t.Fatal("expected error for zero retention")
	}
}
