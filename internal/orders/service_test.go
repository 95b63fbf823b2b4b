package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/pricing"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
	"github.com/calderwoods/shopkit-backend/pkg/pagination"
)

type stubOrderRepo struct {
	created *models.Order
	order   *models.Order
	rows    []models.Order
	err     error
}

func (s *stubOrderRepo) CreateWithTx(_ *gorm.DB, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	order.ID = uuid.New()
	s.created = order
	return nil
}

func (s *stubOrderRepo) FindByID(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) ListByShop(_ context.Context, _ uuid.UUID, _ *pagination.Cursor, limit int) ([]models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

type stubCatalog struct {
	items      []models.InventoryItem
	failStock  map[uuid.UUID]bool
	decrements map[uuid.UUID]int
}

func (s *stubCatalog) FindByIDs(context.Context, uuid.UUID, []uuid.UUID) ([]models.InventoryItem, error) {
	return s.items, nil
}

func (s *stubCatalog) FindByIDsWithTx(*gorm.DB, uuid.UUID, []uuid.UUID) ([]models.InventoryItem, error) {
	return s.items, nil
}

func (s *stubCatalog) DecrementStockWithTx(_ *gorm.DB, itemID uuid.UUID, qty int) (bool, error) {
	if s.failStock[itemID] {
		return false, nil
	}
	if s.decrements == nil {
		s.decrements = make(map[uuid.UUID]int)
	}
	s.decrements[itemID] += qty
	return true, nil
}

type stubRules struct {
	rules   []pricing.Rule
	coupons []pricing.Coupon
}

func (s *stubRules) PricingRules(context.Context, uuid.UUID, time.Time) ([]pricing.Rule, []pricing.Coupon, error) {
	return s.rules, s.coupons, nil
}

type stubSales struct {
	credited   bool
	salesCents int
	tipsCents  int
	noSession  bool
}

func (s *stubSales) AddSalesWithTx(_ *gorm.DB, _ uuid.UUID, salesCents, tipsCents int) (bool, error) {
	if s.noSession {
		return false, nil
	}
	s.credited = true
	s.salesCents = salesCents
	s.tipsCents = tipsCents
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func approvedItem(price int) models.InventoryItem {
	return models.InventoryItem{
		ID:             uuid.New(),
		SKU:            "sku-" + uuid.NewString()[:8],
		Name:           "item",
		PriceCents:     price,
		StockQty:       100,
		ApprovalStatus: enums.ApprovalStatusApproved,
	}
}

type testDeps struct {
	repo    *stubOrderRepo
	catalog *stubCatalog
	rules   *stubRules
	sales   *stubSales
	emitter *stubEmitter
}

func newOrderService(t *testing.T, deps *testDeps) Service {
	t.Helper()
	if deps.repo == nil {
		deps.repo = &stubOrderRepo{}
	}
	if deps.catalog == nil {
		deps.catalog = &stubCatalog{}
	}
	if deps.rules == nil {
		deps.rules = &stubRules{}
	}
	if deps.sales == nil {
		deps.sales = &stubSales{}
	}
	if deps.emitter == nil {
		deps.emitter = &stubEmitter{}
	}
	svc, err := NewService(deps.repo, deps.catalog, deps.rules, deps.sales, stubTxRunner{}, deps.emitter, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceCheckoutPlacesOrder(t *testing.T) {
	item := approvedItem(2500)
	deps := &testDeps{catalog: &stubCatalog{items: []models.InventoryItem{item}}}
	svc := newOrderService(t, deps)

	dto, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines:       []CheckoutLine{{ItemID: item.ID, Qty: 2}},
		ActorWallet: "0xbuyer",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if dto.TotalCents != 5000 {
		t.Fatalf("expected total 5000, got %d", dto.TotalCents)
	}
	if dto.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed, got %s", dto.Status)
	}
	// 1 XP per dollar.
	if dto.XPAwarded != 50 {
		t.Fatalf("expected 50 xp, got %d", dto.XPAwarded)
	}
	if deps.catalog.decrements[item.ID] != 2 {
		t.Fatalf("expected stock decrement of 2, got %d", deps.catalog.decrements[item.ID])
	}
	if len(deps.emitter.events) != 1 || deps.emitter.events[0].EventType != enums.OutboxEventOrderCreated {
		t.Fatalf("expected order.created event, got %+v", deps.emitter.events)
	}
	if len(dto.LineItems) != 1 || dto.LineItems[0].LineTotalCents != 5000 {
		t.Fatalf("expected snapshotted line, got %+v", dto.LineItems)
	}
}

func TestServiceCheckoutAppliesActiveDiscount(t *testing.T) {
	item := approvedItem(1000)
	rule := pricing.Rule{ID: uuid.New(), Type: enums.DiscountTypePercentage, Scope: enums.DiscountScopeAll, Value: 10}
	deps := &testDeps{
		catalog: &stubCatalog{items: []models.InventoryItem{item}},
		rules:   &stubRules{rules: []pricing.Rule{rule}},
	}
	svc := newOrderService(t, deps)

	dto, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines: []CheckoutLine{{ItemID: item.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if dto.TotalCents != 900 || dto.SavingsCents != 100 {
		t.Fatalf("expected discounted order, got total %d savings %d", dto.TotalCents, dto.SavingsCents)
	}
}

func TestServiceCheckoutRedeemsCoupon(t *testing.T) {
	item := approvedItem(5000)
	coupon := pricing.Coupon{ID: uuid.New(), Code: "PERCENT10", Type: enums.DiscountTypePercentage, Value: 10}
	deps := &testDeps{
		catalog: &stubCatalog{items: []models.InventoryItem{item}},
		rules:   &stubRules{coupons: []pricing.Coupon{coupon}},
	}
	svc := newOrderService(t, deps)

	dto, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines:      []CheckoutLine{{ItemID: item.ID, Qty: 1}},
		CouponCode: "percent10",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if dto.CouponCents != 500 || dto.TotalCents != 4500 {
		t.Fatalf("expected coupon applied, got coupon %d total %d", dto.CouponCents, dto.TotalCents)
	}
	if dto.CouponCode == nil || *dto.CouponCode != "PERCENT10" {
		t.Fatalf("expected canonical code, got %v", dto.CouponCode)
	}
}

func TestServiceCheckoutUnknownCouponFails(t *testing.T) {
	item := approvedItem(1000)
	deps := &testDeps{catalog: &stubCatalog{items: []models.InventoryItem{item}}}
	svc := newOrderService(t, deps)

	_, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines:      []CheckoutLine{{ItemID: item.ID, Qty: 1}},
		CouponCode: "NOPE",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if deps.repo.created != nil {
		t.Fatal("expected no order persisted")
	}
	if len(deps.catalog.decrements) != 0 {
		t.Fatal("expected no stock touched")
	}
}

func TestServiceCheckoutOversellConflicts(t *testing.T) {
	item := approvedItem(1000)
	deps := &testDeps{
		catalog: &stubCatalog{
			items:     []models.InventoryItem{item},
			failStock: map[uuid.UUID]bool{item.ID: true},
		},
	}
	svc := newOrderService(t, deps)

	_, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines: []CheckoutLine{{ItemID: item.ID, Qty: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(deps.emitter.events) != 0 {
		t.Fatal("expected no event on failed checkout")
	}
}

func TestServiceCheckoutRejectsUnapprovedItem(t *testing.T) {
	item := approvedItem(1000)
	item.ApprovalStatus = enums.ApprovalStatusPending
	deps := &testDeps{catalog: &stubCatalog{items: []models.InventoryItem{item}}}
	svc := newOrderService(t, deps)

	_, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines: []CheckoutLine{{ItemID: item.ID, Qty: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceCheckoutCreditsOpenSession(t *testing.T) {
	item := approvedItem(2000)
	deps := &testDeps{catalog: &stubCatalog{items: []models.InventoryItem{item}}}
	svc := newOrderService(t, deps)

	memberID := uuid.New()
	_, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines:    []CheckoutLine{{ItemID: item.ID, Qty: 1}},
		MemberID: &memberID,
		TipCents: 300,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !deps.sales.credited || deps.sales.salesCents != 2000 || deps.sales.tipsCents != 300 {
		t.Fatalf("expected session credited, got %+v", deps.sales)
	}
}

func TestServiceCheckoutValidatesCart(t *testing.T) {
	svc := newOrderService(t, &testDeps{})
	itemID := uuid.New()

	cases := []CheckoutInput{
		{},
		{Lines: []CheckoutLine{{ItemID: itemID, Qty: 0}}},
		{Lines: []CheckoutLine{{ItemID: itemID, Qty: 1}, {ItemID: itemID, Qty: 2}}},
		{Lines: []CheckoutLine{{ItemID: itemID, Qty: 1}}, TipCents: -1},
	}
	for i, input := range cases {
		_, err := svc.Checkout(context.Background(), uuid.New(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestServiceQuoteDoesNotTouchStock(t *testing.T) {
	item := approvedItem(1500)
	deps := &testDeps{catalog: &stubCatalog{items: []models.InventoryItem{item}}}
	svc := newOrderService(t, deps)

	quote, err := svc.Quote(context.Background(), uuid.New(), CheckoutInput{
		Lines: []CheckoutLine{{ItemID: item.ID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.TotalCents != 4500 {
		t.Fatalf("expected total 4500, got %d", quote.TotalCents)
	}
	if len(deps.catalog.decrements) != 0 {
		t.Fatal("expected no stock decrement on quote")
	}
	if deps.repo.created != nil {
		t.Fatal("expected no order persisted on quote")
	}
}

func TestServiceListPaginates(t *testing.T) {
	now := time.Now()
	rows := make([]models.Order, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, models.Order{
			ID:        uuid.New(),
			ShopID:    uuid.New(),
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	svc := newOrderService(t, &testDeps{repo: &stubOrderRepo{rows: rows}})

	page, err := svc.List(context.Background(), uuid.New(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page.Orders))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor")
	}
	cursor, err := pagination.ParseCursor(*page.NextCursor)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor.ID != rows[1].ID {
		t.Fatalf("expected cursor on last returned row, got %s", cursor.ID)
	}
}

func TestServiceListRejectsBadCursor(t *testing.T) {
	svc := newOrderService(t, &testDeps{})

	_, err := svc.List(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!!"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
