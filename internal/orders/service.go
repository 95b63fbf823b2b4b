package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/loyalty"
	"github.com/calderwoods/shopkit-backend/internal/pricing"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
	"github.com/calderwoods/shopkit-backend/pkg/pagination"
)

type orderRepository interface {
	CreateWithTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, shopID, orderID uuid.UUID) (*models.Order, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

type catalogGateway interface {
	FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]models.InventoryItem, error)
	FindByIDsWithTx(tx *gorm.DB, shopID uuid.UUID, ids []uuid.UUID) ([]models.InventoryItem, error)
	DecrementStockWithTx(tx *gorm.DB, itemID uuid.UUID, qty int) (bool, error)
}

type ruleProvider interface {
	PricingRules(ctx context.Context, shopID uuid.UUID, now time.Time) ([]pricing.Rule, []pricing.Coupon, error)
}

type salesRecorder interface {
	AddSalesWithTx(tx *gorm.DB, memberID uuid.UUID, salesCents, tipsCents int) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CheckoutLine is one requested cart entry.
type CheckoutLine struct {
	ItemID uuid.UUID `json:"item_id"`
	Qty    int       `json:"qty"`
}

// CheckoutInput carries everything needed to price and place an order.
type CheckoutInput struct {
	Lines       []CheckoutLine
	CouponCode  string
	MemberID    *uuid.UUID
	TipCents    int
	ActorWallet string
}

// Service exposes quoting and checkout. The server-side pricing engine is the
// single source of truth for order totals.
type Service interface {
	Quote(ctx context.Context, shopID uuid.UUID, input CheckoutInput) (*pricing.Quote, error)
	Checkout(ctx context.Context, shopID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	GetByID(ctx context.Context, shopID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, shopID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	repo    orderRepository
	catalog catalogGateway
	rules   ruleProvider
	sales   salesRecorder
	tx      txRunner
	events  eventEmitter
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds an orders service with the provided dependencies.
func NewService(repo orderRepository, catalog catalogGateway, rules ruleProvider, sales salesRecorder, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog gateway required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule provider required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sales recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		rules:   rules,
		sales:   sales,
		tx:      tx,
		events:  events,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Quote prices the cart without touching stock or persisting anything.
func (s *service) Quote(ctx context.Context, shopID uuid.UUID, input CheckoutInput) (*pricing.Quote, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	items, err := s.catalog.FindByIDs(ctx, shopID, lineItemIDs(input.Lines))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	return s.quoteFromItems(ctx, shopID, input, items)
}

// Checkout prices the cart and, in one transaction, decrements stock, writes
// the order with its line items, credits the clocked-in member and queues
// order.created.
func (s *service) Checkout(ctx context.Context, shopID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	if input.TipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.catalog.FindByIDsWithTx(tx, shopID, lineItemIDs(input.Lines))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
		}

		quote, err := s.quoteFromItems(ctx, shopID, input, items)
		if err != nil {
			return err
		}

		for _, line := range quote.Lines {
			ok, err := s.catalog.DecrementStockWithTx(tx, line.ItemID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{"item_id": line.ItemID.String(), "sku": line.SKU})
			}
		}

		order = orderFromQuote(shopID, input, quote)
		if err := s.repo.CreateWithTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if input.MemberID != nil {
			credited, err := s.sales.AddSalesWithTx(tx, *input.MemberID, quote.TotalCents, input.TipCents)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit session")
			}
			if !credited && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "member_id", input.MemberID.String()),
					"checkout member has no open session")
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCreated,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Wallet: input.ActorWallet, ShopID: &shopID},
			Data:          FromModel(order),
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"total_cents": order.TotalCents,
			"xp_awarded":  order.XPAwarded,
		}), "order placed")
	}
	return FromModel(order), nil
}

func (s *service) GetByID(ctx context.Context, shopID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, shopID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByShop(ctx, shopID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &Page{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			break
		}
		page.Orders = append(page.Orders, *FromModel(&rows[i]))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) quoteFromItems(ctx context.Context, shopID uuid.UUID, input CheckoutInput, items []models.InventoryItem) (*pricing.Quote, error) {
	catalog := make([]pricing.CatalogItem, 0, len(items))
	for _, item := range items {
		if item.ApprovalStatus != enums.ApprovalStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is not approved for sale").
				WithDetails(map[string]any{"item_id": item.ID.String(), "sku": item.SKU})
		}
		catalog = append(catalog, pricing.CatalogItem{
			ID:         item.ID,
			SKU:        item.SKU,
			Name:       item.Name,
			PriceCents: item.PriceCents,
			Category:   item.Category,
		})
	}

	rules, coupons, err := s.rules.PricingRules(ctx, shopID, s.now())
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, pricing.Line{ItemID: line.ItemID, Qty: line.Qty})
	}

	return pricing.Compute(pricing.Input{
		Lines:      lines,
		Catalog:    catalog,
		Rules:      rules,
		Coupons:    coupons,
		CouponCode: input.CouponCode,
	})
}

func orderFromQuote(shopID uuid.UUID, input CheckoutInput, quote *pricing.Quote) *models.Order {
	order := &models.Order{
		ShopID:        shopID,
		Status:        enums.OrderStatusPlaced,
		SubtotalCents: quote.SubtotalCents,
		SavingsCents:  quote.ItemSavingsCents,
		CouponCode:    quote.CouponCode,
		CouponCents:   quote.CouponCents,
		TotalCents:    quote.TotalCents,
		XPAwarded:     loyalty.XPForSpend(quote.TotalCents),
		MemberID:      input.MemberID,
	}
	for _, line := range quote.Lines {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ItemID:            line.ItemID,
			SKU:               line.SKU,
			Name:              line.Name,
			Qty:               line.Qty,
			UnitPriceCents:    line.UnitPriceCents,
			ChargedPriceCents: line.ChargedUnitPriceCents,
			SavingsCents:      line.SavingsCents,
			LineTotalCents:    line.LineTotalCents,
			AppliedDiscountID: line.AppliedRuleID,
		})
	}
	return order
}

func validateLines(lines []CheckoutLine) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.ItemID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate cart line").
				WithDetails(map[string]any{"item_id": line.ItemID.String()})
		}
		seen[line.ItemID] = true
	}
	return nil
}

func lineItemIDs(lines []CheckoutLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	return ids
}
