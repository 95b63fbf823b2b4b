package packages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
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

type stubJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.PackageJob
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[uuid.UUID]*models.PackageJob)}
}

func (s *stubJobRepo) Create(_ context.Context, job *models.PackageJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *stubJobRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PackageJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *stubJobRepo) ListByShop(_ context.Context, shopID uuid.UUID) ([]models.PackageJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PackageJob
	for _, job := range s.jobs {
		if job.ShopID != nil && *job.ShopID == shopID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *stubJobRepo) ListByStatus(_ context.Context, status enums.PackageJobStatus) ([]models.PackageJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PackageJob
	for _, job := range s.jobs {
		if job.Status == status {
			out = append(out, *job)
		}
	}
	return out, nil
}

// Update refuses cancelled contexts the way a real driver does, so tests
// catch writes issued on a context that shutdown already tore down.
func (s *stubJobRepo) Update(ctx context.Context, job *models.PackageJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

type stubProgressStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newStubProgressStore() *stubProgressStore {
	return &stubProgressStore{values: make(map[string]string)}
}

func (s *stubProgressStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = fmt.Sprint(value)
	return nil
}

func (s *stubProgressStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (s *stubProgressStore) PackageProgressKey(jobID string) string {
	return "sk:pkg_progress:" + jobID
}

func testPackagesConfig() config.PackagesConfig {
	return config.PackagesConfig{
		Workers:      1,
		ProgressTTL:  time.Minute,
		StepDelay:    0,
		ArtifactBase: "https://artifacts.example.dev",
	}
}

func newPackageService(t *testing.T, repo jobRepository, store progressStore, builder ArtifactBuilder) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, store, builder, testPackagesConfig(), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func waitForTerminal(t *testing.T, svc Service, jobID uuid.UUID) *JobDTO {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestNewServiceRequiresDeps(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if _, err := NewService(nil, newStubProgressStore(), nil, testPackagesConfig(), logg); err == nil {
		t.Fatal("expected error for missing repo")
	}
	if _, err := NewService(newStubJobRepo(), nil, nil, testPackagesConfig(), logg); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func TestCreateJobValidates(t *testing.T) {
	svc := newPackageService(t, newStubJobRepo(), newStubProgressStore(), nil)

	_, err := svc.CreateJob(context.Background(), CreateJobInput{Kind: "ios_ipa", RequestedBy: "0xabc"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.CreateJob(context.Background(), CreateJobInput{Kind: "android_apk"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateJobQueuesAndSeedsProgress(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()
	svc := newPackageService(t, repo, store, nil)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{Kind: "desktop_zip", RequestedBy: "0xabc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.Status != enums.PackageJobStatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}

	update, err := svc.Progress(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if update.Status != enums.PackageJobStatusQueued || update.Progress != 0 {
		t.Fatalf("unexpected seed progress: %+v", update)
	}
}

func TestWorkerCompletesJob(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()
	svc := newPackageService(t, repo, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	job, err := svc.CreateJob(ctx, CreateJobInput{Kind: "android_apk", RequestedBy: "0xabc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	done := waitForTerminal(t, svc, job.ID)
	if done.Status != enums.PackageJobStatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", done.Status, done.ErrorMessage)
	}
	if done.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", done.Progress)
	}
	if done.ArtifactURL == nil || !strings.HasSuffix(*done.ArtifactURL, ".apk") {
		t.Fatalf("expected apk artifact url, got %v", done.ArtifactURL)
	}

	raw, err := store.Get(context.Background(), store.PackageProgressKey(job.ID.String()))
	if err != nil {
		t.Fatalf("read progress: %v", err)
	}
	var update ProgressUpdate
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		t.Fatalf("unmarshal progress: %v", err)
	}
	if update.Status != enums.PackageJobStatusCompleted || update.SasURL == "" {
		t.Fatalf("unexpected final progress: %+v", update)
	}
}

func TestWorkerMarksBuildFailure(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()
	builder := func(context.Context, *models.PackageJob) (string, error) {
		return "", fmt.Errorf("signing key unavailable")
	}
	svc := newPackageService(t, repo, store, builder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	job, err := svc.CreateJob(ctx, CreateJobInput{Kind: "desktop_zip", RequestedBy: "0xabc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	done := waitForTerminal(t, svc, job.ID)
	if done.Status != enums.PackageJobStatusFailed {
		t.Fatalf("expected failed, got %s", done.Status)
	}
	if done.ErrorMessage == nil || *done.ErrorMessage != "signing key unavailable" {
		t.Fatalf("expected failure reason, got %v", done.ErrorMessage)
	}

	update, err := svc.Progress(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if update.Status != enums.PackageJobStatusFailed {
		t.Fatalf("expected failed progress doc, got %+v", update)
	}
}

func TestCreateJobQueueFullFailsRow(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := testPackagesConfig()
	cfg.QueueDepth = 1
	svc, err := NewService(repo, store, nil, cfg, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// No workers running, so the single slot fills on the first create.
	if _, err := svc.CreateJob(context.Background(), CreateJobInput{Kind: "android_apk", RequestedBy: "0xabc"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = svc.CreateJob(context.Background(), CreateJobInput{Kind: "desktop_zip", RequestedBy: "0xabc"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict when queue is full, got %v", err)
	}

	// The overflow row must end terminal instead of lingering as queued.
	repo.mu.Lock()
	var overflow *models.PackageJob
	for _, job := range repo.jobs {
		if job.Status == enums.PackageJobStatusFailed {
			overflow = job
		}
	}
	repo.mu.Unlock()
	if overflow == nil {
		t.Fatal("expected the rejected job to be marked failed")
	}
	if overflow.ErrorMessage == nil || *overflow.ErrorMessage != "build queue is full" {
		t.Fatalf("expected queue-full reason, got %v", overflow.ErrorMessage)
	}
}

func TestStartRecoversQueuedJobs(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()

	// A row accepted by a previous process that never got to run.
	stranded := &models.PackageJob{
		ID:          uuid.New(),
		Kind:        enums.PackageKindDesktopZip,
		Status:      enums.PackageJobStatusQueued,
		RequestedBy: "0xabc",
	}
	if err := repo.Create(context.Background(), stranded); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	svc := newPackageService(t, repo, store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	done := waitForTerminal(t, svc, stranded.ID)
	if done.Status != enums.PackageJobStatusCompleted {
		t.Fatalf("expected recovered job to complete, got %s", done.Status)
	}
}

func TestShutdownPersistsInterruptedJob(t *testing.T) {
	repo := newStubJobRepo()
	store := newStubProgressStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := testPackagesConfig()
	cfg.StepDelay = 100 * time.Millisecond
	svc, err := NewService(repo, store, nil, cfg, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	job, err := svc.CreateJob(context.Background(), CreateJobInput{Kind: "android_apk", RequestedBy: "0xabc"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		current, err := svc.GetJob(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if current.Status == enums.PackageJobStatusRunning {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	svc.Wait()

	done, err := svc.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if done.Status != enums.PackageJobStatusFailed {
		t.Fatalf("expected interrupted job persisted as failed, got %s", done.Status)
	}
	if done.ErrorMessage == nil || *done.ErrorMessage != "build interrupted by shutdown" {
		t.Fatalf("expected shutdown reason, got %v", done.ErrorMessage)
	}
}

func TestProgressFallsBackToRow(t *testing.T) {
	repo := newStubJobRepo()
	svc := newPackageService(t, repo, newStubProgressStore(), nil)

	url := "https://artifacts.example.dev/android_apk/old.apk"
	job := &models.PackageJob{
		ID:          uuid.New(),
		Kind:        enums.PackageKindAndroidAPK,
		Status:      enums.PackageJobStatusCompleted,
		Progress:    100,
		ArtifactURL: &url,
		RequestedBy: "0xabc",
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	update, err := svc.Progress(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if update.Status != enums.PackageJobStatusCompleted || update.SasURL != url {
		t.Fatalf("expected fallback from row, got %+v", update)
	}
}

func TestGetJobNotFound(t *testing.T) {
	svc := newPackageService(t, newStubJobRepo(), newStubProgressStore(), nil)

	_, err := svc.GetJob(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
