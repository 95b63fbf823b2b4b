package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
)

type stubItemRepo struct {
	item    *models.InventoryItem
	items   []models.InventoryItem
	err     error
	created *models.InventoryItem
	updated *models.InventoryItem
}

func (s *stubItemRepo) Create(_ context.Context, item *models.InventoryItem) error {
	if s.err != nil {
		return s.err
	}
	item.ID = uuid.New()
	s.created = item
	return nil
}

func (s *stubItemRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.InventoryItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubItemRepo) ListByShop(context.Context, uuid.UUID, *enums.ApprovalStatus) ([]models.InventoryItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubItemRepo) Update(_ context.Context, item *models.InventoryItem) error {
	if s.err != nil {
		return s.err
	}
	s.updated = item
	return nil
}

func (s *stubItemRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	if s.item == nil {
		return gorm.ErrRecordNotFound
	}
	return s.err
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r sqliteTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type stubEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// The model's postgres column types (text[], jsonb) don't AutoMigrate on
	// sqlite, so the table is created by hand with TEXT stand-ins.
	ddl := `
CREATE TABLE inventory_items (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  category TEXT NOT NULL DEFAULT '',
  tags TEXT,
  attributes TEXT,
  approval_status TEXT NOT NULL DEFAULT 'PENDING',
  revision TEXT,
  review_note TEXT,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func pendingItem(t *testing.T, conn *gorm.DB) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		ID:             uuid.New(),
		ShopID:         uuid.New(),
		SKU:            "SKU-1",
		Name:           "Espresso",
		PriceCents:     450,
		StockQty:       10,
		ApprovalStatus: enums.ApprovalStatusPending,
	}
	if conn != nil {
		if err := conn.Create(item).Error; err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	return item
}

func newTestService(t *testing.T, repo itemRepository, conn *gorm.DB, emitter eventEmitter) Service {
	t.Helper()
	if conn == nil {
		conn = newTestDB(t)
	}
	svc, err := NewService(repo, sqliteTxRunner{db: conn}, emitter, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresDeps(t *testing.T) {
	if _, err := NewService(nil, sqliteTxRunner{}, &stubEmitter{}, nil); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewService(&stubItemRepo{}, nil, &stubEmitter{}, nil); err == nil {
		t.Fatal("expected error without tx runner")
	}
	if _, err := NewService(&stubItemRepo{}, sqliteTxRunner{}, nil, nil); err == nil {
		t.Fatal("expected error without emitter")
	}
}

func TestServiceCreateStartsPending(t *testing.T) {
	repo := &stubItemRepo{}
	svc := newTestService(t, repo, nil, &stubEmitter{})

	dto, err := svc.Create(context.Background(), uuid.New(), CreateItemInput{
		SKU:        "SKU-1",
		Name:       "Espresso",
		PriceCents: 450,
		StockQty:   models.UnlimitedStock,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusPending {
		t.Fatalf("expected pending status, got %s", dto.ApprovalStatus)
	}
	if dto.StockQty != models.UnlimitedStock {
		t.Fatalf("expected unlimited stock, got %d", dto.StockQty)
	}
}

func TestServiceCreateValidates(t *testing.T) {
	svc := newTestService(t, &stubItemRepo{}, nil, &stubEmitter{})

	cases := []CreateItemInput{
		{Name: "x", PriceCents: 1},               // missing sku
		{SKU: "s", PriceCents: 1},                // missing name
		{SKU: "s", Name: "x", PriceCents: -1},    // negative price
		{SKU: "s", Name: "x", StockQty: -2},      // below unlimited sentinel
	}
	for i, input := range cases {
		_, err := svc.Create(context.Background(), uuid.New(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestServiceSubmitRevisionFromApproved(t *testing.T) {
	item := pendingItem(t, nil)
	item.ApprovalStatus = enums.ApprovalStatusApproved
	repo := &stubItemRepo{item: item}
	svc := newTestService(t, repo, nil, &stubEmitter{})

	name := "Double Espresso"
	dto, err := svc.SubmitRevision(context.Background(), item.ShopID, item.ID, RevisionPayload{Name: &name})
	if err != nil {
		t.Fatalf("submit revision: %v", err)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusPending {
		t.Fatalf("expected pending, got %s", dto.ApprovalStatus)
	}
	if len(dto.Revision) == 0 {
		t.Fatal("expected stored revision payload")
	}
	// Live fields stay untouched until approval.
	if dto.Name != "Espresso" {
		t.Fatalf("expected live name unchanged, got %s", dto.Name)
	}
}

func TestServiceSubmitRevisionWhilePendingConflicts(t *testing.T) {
	item := pendingItem(t, nil)
	svc := newTestService(t, &stubItemRepo{item: item}, nil, &stubEmitter{})

	name := "Double Espresso"
	_, err := svc.SubmitRevision(context.Background(), item.ShopID, item.ID, RevisionPayload{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestServiceApproveMergesRevisionAndEmits(t *testing.T) {
	conn := newTestDB(t)
	item := pendingItem(t, conn)

	name := "Double Espresso"
	price := 550
	raw, _ := json.Marshal(RevisionPayload{Name: &name, PriceCents: &price})
	item.Revision = raw

	emitter := &stubEmitter{}
	svc := newTestService(t, &stubItemRepo{item: item}, conn, emitter)

	dto, err := svc.Approve(context.Background(), "0xadmin", item.ShopID, item.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatalf("expected approved, got %s", dto.ApprovalStatus)
	}
	if dto.Name != "Double Espresso" || dto.PriceCents != 550 {
		t.Fatalf("expected merged revision, got %s / %d", dto.Name, dto.PriceCents)
	}
	if len(dto.Revision) != 0 {
		t.Fatal("expected revision cleared")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.OutboxEventInventoryApproved {
		t.Fatalf("expected inventory.approved event, got %+v", emitter.events)
	}
}

func TestServiceApproveNonPendingConflicts(t *testing.T) {
	item := pendingItem(t, nil)
	item.ApprovalStatus = enums.ApprovalStatusApproved
	svc := newTestService(t, &stubItemRepo{item: item}, nil, &stubEmitter{})

	_, err := svc.Approve(context.Background(), "0xadmin", item.ShopID, item.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestServiceRejectKeepsLiveFields(t *testing.T) {
	item := pendingItem(t, nil)
	name := "Double Espresso"
	raw, _ := json.Marshal(RevisionPayload{Name: &name})
	item.Revision = raw

	repo := &stubItemRepo{item: item}
	svc := newTestService(t, repo, nil, &stubEmitter{})

	dto, err := svc.Reject(context.Background(), item.ShopID, item.ID, RejectInput{Note: "name too vague"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusRejected {
		t.Fatalf("expected rejected, got %s", dto.ApprovalStatus)
	}
	if dto.Name != "Espresso" {
		t.Fatalf("expected live name preserved, got %s", dto.Name)
	}
	if dto.ReviewNote == nil || *dto.ReviewNote != "name too vague" {
		t.Fatalf("expected reviewer note, got %v", dto.ReviewNote)
	}
	if len(dto.Revision) != 0 {
		t.Fatal("expected revision discarded by default")
	}
}

func TestServiceRejectRequiresNote(t *testing.T) {
	item := pendingItem(t, nil)
	svc := newTestService(t, &stubItemRepo{item: item}, nil, &stubEmitter{})

	_, err := svc.Reject(context.Background(), item.ShopID, item.ID, RejectInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRepositoryDecrementStock(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	item := pendingItem(t, conn)

	ok, err := repo.DecrementStockWithTx(conn, item.ID, 4)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to succeed")
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.StockQty != 6 {
		t.Fatalf("expected stock 6, got %d", reloaded.StockQty)
	}

	// Oversell is refused.
	ok, err = repo.DecrementStockWithTx(conn, item.ID, 7)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if ok {
		t.Fatal("expected oversell to be refused")
	}
}

func TestRepositoryRoundTripsTags(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	item := pendingItem(t, nil)
	item.Tags = pq.StringArray{"espresso", "hot"}
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), item.ShopID, item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Tags) != 2 || reloaded.Tags[0] != "espresso" || reloaded.Tags[1] != "hot" {
		t.Fatalf("expected tags preserved, got %v", reloaded.Tags)
	}
}

func TestRepositoryDecrementUnlimitedStock(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	item := pendingItem(t, conn)
	if err := conn.Model(item).Update("stock_qty", models.UnlimitedStock).Error; err != nil {
		t.Fatalf("set unlimited: %v", err)
	}

	ok, err := repo.DecrementStockWithTx(conn, item.ID, 999)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected unlimited stock to always succeed")
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.StockQty != models.UnlimitedStock {
		t.Fatalf("expected sentinel untouched, got %d", reloaded.StockQty)
	}
}
