package packages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	pkgredis "github.com/calderwoods/shopkit-backend/pkg/redis"
)

// buildStages are the progress checkpoints written while a build runs.
var buildStages = []int{10, 30, 55, 80, 95}

type jobRepository interface {
	Create(ctx context.Context, job *models.PackageJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PackageJob, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.PackageJob, error)
	ListByStatus(ctx context.Context, status enums.PackageJobStatus) ([]models.PackageJob, error)
	Update(ctx context.Context, job *models.PackageJob) error
}

type progressStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	PackageProgressKey(jobID string) string
}

// ArtifactBuilder produces the downloadable artifact link for a finished
// build. The default implementation derives it from the configured base URL.
type ArtifactBuilder func(ctx context.Context, job *models.PackageJob) (string, error)

// CreateJobInput starts an installer generation run.
type CreateJobInput struct {
	ShopID      *uuid.UUID
	Kind        string
	RequestedBy string
}

// Service exposes installer package generation.
type Service interface {
	CreateJob(ctx context.Context, input CreateJobInput) (*JobDTO, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*JobDTO, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]JobDTO, error)
	Progress(ctx context.Context, jobID uuid.UUID) (*ProgressUpdate, error)
	Start(ctx context.Context)
	Wait()
}

type service struct {
	repo    jobRepository
	store   progressStore
	builder ArtifactBuilder
	cfg     config.PackagesConfig
	logg    *logger.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewService builds a package service. A nil builder falls back to the
// artifact-base URL scheme.
func NewService(repo jobRepository, store progressStore, builder ArtifactBuilder, cfg config.PackagesConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("package repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("progress store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	s := &service{
		repo:  repo,
		store: store,
		cfg:   cfg,
		logg:  logg,
		queue: make(chan uuid.UUID, cfg.QueueDepth),
	}
	s.builder = builder
	if s.builder == nil {
		s.builder = defaultBuilder(cfg.ArtifactBase)
	}
	return s, nil
}

func defaultBuilder(base string) ArtifactBuilder {
	return func(_ context.Context, job *models.PackageJob) (string, error) {
		ext := ".zip"
		if job.Kind == enums.PackageKindAndroidAPK {
			ext = ".apk"
		}
		return fmt.Sprintf("%s/%s/%s%s", strings.TrimRight(base, "/"), job.Kind, job.ID, ext), nil
	}
}

// Start requeues work left behind by a previous process, then launches the
// build workers. They drain the queue until ctx is cancelled.
func (s *service) Start(ctx context.Context) {
	s.recoverQueued(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case jobID := <-s.queue:
					s.runJob(ctx, jobID)
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (s *service) Wait() {
	s.wg.Wait()
}

// recoverQueued puts rows still marked QUEUED back on the channel so a
// restart does not strand accepted jobs.
func (s *service) recoverQueued(ctx context.Context) {
	rows, err := s.repo.ListByStatus(ctx, enums.PackageJobStatusQueued)
	if err != nil {
		s.logg.Error(ctx, "recover queued package jobs", err)
		return
	}
	for i := range rows {
		select {
		case s.queue <- rows[i].ID:
		default:
			s.logg.Warn(s.logg.WithField(ctx, "package_job_id", rows[i].ID.String()), "queue full during recovery, job deferred to next restart")
			return
		}
	}
}

func (s *service) CreateJob(ctx context.Context, input CreateJobInput) (*JobDTO, error) {
	kind, err := enums.ParsePackageKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown package kind")
	}
	requestedBy := strings.TrimSpace(input.RequestedBy)
	if requestedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested_by is required")
	}

	job := &models.PackageJob{
		ID:          uuid.New(),
		ShopID:      input.ShopID,
		Kind:        kind,
		Status:      enums.PackageJobStatusQueued,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package job")
	}

	s.writeProgress(ctx, job.ID, ProgressUpdate{Progress: 0, Status: enums.PackageJobStatusQueued})

	select {
	case s.queue <- job.ID:
	default:
		// The persisted row must not linger as QUEUED when no worker will
		// ever pick it up.
		s.fail(ctx, job, "build queue is full")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "build queue is full")
	}
	return FromModel(job), nil
}

func (s *service) GetJob(ctx context.Context, jobID uuid.UUID) (*JobDTO, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromModel(job), nil
}

func (s *service) ListByShop(ctx context.Context, shopID uuid.UUID) ([]JobDTO, error) {
	jobs, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list package jobs")
	}
	out := make([]JobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, *FromModel(&jobs[i]))
	}
	return out, nil
}

// Progress returns the live progress document, falling back to the durable
// row when the redis key has expired.
func (s *service) Progress(ctx context.Context, jobID uuid.UUID) (*ProgressUpdate, error) {
	raw, err := s.store.Get(ctx, s.store.PackageProgressKey(jobID.String()))
	if err == nil {
		var update ProgressUpdate
		if unmarshalErr := json.Unmarshal([]byte(raw), &update); unmarshalErr == nil {
			return &update, nil
		}
	} else if !errors.Is(err, pkgredis.Nil) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read progress")
	}

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	update := ProgressUpdate{Progress: job.Progress, Status: job.Status}
	if job.ArtifactURL != nil {
		update.SasURL = *job.ArtifactURL
	}
	return &update, nil
}

func (s *service) loadJob(ctx context.Context, jobID uuid.UUID) (*models.PackageJob, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "package job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package job")
	}
	return job, nil
}

func (s *service) runJob(ctx context.Context, jobID uuid.UUID) {
	jobCtx := s.logg.WithField(ctx, "package_job_id", jobID.String())
	// Terminal statuses are written on this context so a shutdown that
	// cancelled the worker ctx cannot block the final update.
	termCtx := context.WithoutCancel(jobCtx)

	job, err := s.repo.FindByID(jobCtx, jobID)
	if err != nil {
		s.logg.Error(jobCtx, "package job vanished before build", err)
		return
	}

	job.Status = enums.PackageJobStatusRunning
	if err := s.persist(jobCtx, job); err != nil {
		return
	}

	for _, stage := range buildStages {
		if ctx.Err() != nil {
			s.fail(termCtx, job, "build interrupted by shutdown")
			return
		}
		job.Progress = stage
		if err := s.persist(jobCtx, job); err != nil {
			return
		}
		if s.cfg.StepDelay > 0 {
			select {
			case <-ctx.Done():
				s.fail(termCtx, job, "build interrupted by shutdown")
				return
			case <-time.After(s.cfg.StepDelay):
			}
		}
	}

	artifactURL, err := s.builder(jobCtx, job)
	if err != nil {
		s.logg.Error(jobCtx, "artifact build failed", err)
		s.fail(termCtx, job, err.Error())
		return
	}

	job.Status = enums.PackageJobStatusCompleted
	job.Progress = 100
	job.ArtifactURL = &artifactURL
	if err := s.persist(termCtx, job); err != nil {
		return
	}
	s.logg.Info(jobCtx, "package build completed")
}

func (s *service) fail(ctx context.Context, job *models.PackageJob, reason string) {
	job.Status = enums.PackageJobStatusFailed
	job.ErrorMessage = &reason
	if err := s.repo.Update(ctx, job); err != nil {
		s.logg.Error(ctx, "persist failed package job", err)
		return
	}
	s.writeProgress(ctx, job.ID, ProgressUpdate{Progress: job.Progress, Status: job.Status})
}

// persist writes the row and mirrors the progress document to redis.
func (s *service) persist(ctx context.Context, job *models.PackageJob) error {
	if err := s.repo.Update(ctx, job); err != nil {
		s.logg.Error(ctx, "persist package job", err)
		return err
	}
	update := ProgressUpdate{Progress: job.Progress, Status: job.Status}
	if job.ArtifactURL != nil {
		update.SasURL = *job.ArtifactURL
	}
	s.writeProgress(ctx, job.ID, update)
	return nil
}

// writeProgress is best effort. A missed write degrades the stream, not the
// build.
func (s *service) writeProgress(ctx context.Context, jobID uuid.UUID, update ProgressUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		s.logg.Error(ctx, "marshal progress", err)
		return
	}
	key := s.store.PackageProgressKey(jobID.String())
	if err := s.store.Set(ctx, key, string(payload), s.cfg.ProgressTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "key", key), "progress write failed")
	}
}
