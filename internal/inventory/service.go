package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/db"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	FindByID(ctx context.Context, shopID, itemID uuid.UUID) (*models.InventoryItem, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, status *enums.ApprovalStatus) ([]models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, shopID, itemID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateItemInput holds creation-time data for a new item.
type CreateItemInput struct {
	SKU        string
	Name       string
	PriceCents int
	StockQty   int
	Category   string
	Tags       []string
	Attributes json.RawMessage
}

// UpdateItemInput captures merchant-editable operational fields. Catalog
// content changes (name, price, attributes) go through the review workflow.
type UpdateItemInput struct {
	StockQty *int
	Tags     *[]string
}

// RejectInput carries the reviewer's verdict details.
type RejectInput struct {
	Note         string
	KeepRevision bool
}

// Service exposes inventory operations including the review workflow.
type Service interface {
	Create(ctx context.Context, shopID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetByID(ctx context.Context, shopID, itemID uuid.UUID) (*ItemDTO, error)
	List(ctx context.Context, shopID uuid.UUID, status *enums.ApprovalStatus) ([]ItemDTO, error)
	Update(ctx context.Context, shopID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	Delete(ctx context.Context, shopID, itemID uuid.UUID) error
	SubmitRevision(ctx context.Context, shopID, itemID uuid.UUID, payload RevisionPayload) (*ItemDTO, error)
	Approve(ctx context.Context, actorWallet string, shopID, itemID uuid.UUID) (*ItemDTO, error)
	Reject(ctx context.Context, shopID, itemID uuid.UUID, input RejectInput) (*ItemDTO, error)
}

type service struct {
	repo   itemRepository
	tx     txRunner
	events eventEmitter
	logg   *logger.Logger
}

// NewService builds an inventory service with the provided dependencies.
func NewService(repo itemRepository, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, shopID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQty < models.UnlimitedStock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be -1 or greater")
	}

	item := &models.InventoryItem{
		ShopID:         shopID,
		SKU:            sku,
		Name:           name,
		PriceCents:     input.PriceCents,
		StockQty:       input.StockQty,
		Category:       strings.TrimSpace(input.Category),
		Tags:           cloneTags(input.Tags),
		Attributes:     input.Attributes,
		ApprovalStatus: enums.ApprovalStatusPending,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists in this shop")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return FromModel(item), nil
}

func (s *service) GetByID(ctx context.Context, shopID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, shopID, itemID)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID, status *enums.ApprovalStatus) ([]ItemDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid approval status filter")
	}
	items, err := s.repo.ListByShop(ctx, shopID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, shopID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, shopID, itemID)
	if err != nil {
		return nil, err
	}

	if input.StockQty != nil {
		if *input.StockQty < models.UnlimitedStock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be -1 or greater")
		}
		item.StockQty = *input.StockQty
	}
	if input.Tags != nil {
		item.Tags = cloneTags(*input.Tags)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	return FromModel(item), nil
}

func (s *service) Delete(ctx context.Context, shopID, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, shopID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

// SubmitRevision stores a pending payload and moves the item to PENDING.
// Only APPROVED or REJECTED items can enter review again.
func (s *service) SubmitRevision(ctx context.Context, shopID, itemID uuid.UUID, payload RevisionPayload) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, shopID, itemID)
	if err != nil {
		return nil, err
	}
	if item.ApprovalStatus == enums.ApprovalStatusPending {
		return nil, transitionError(item.ApprovalStatus, enums.ApprovalStatusPending)
	}
	if err := validateRevision(payload); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode revision")
	}

	item.Revision = raw
	item.ReviewNote = nil
	item.ApprovalStatus = enums.ApprovalStatusPending

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit revision")
	}
	return FromModel(item), nil
}

// Approve merges the pending revision into the live item and emits
// inventory.approved. PENDING only.
func (s *service) Approve(ctx context.Context, actorWallet string, shopID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, shopID, itemID)
	if err != nil {
		return nil, err
	}
	if item.ApprovalStatus != enums.ApprovalStatusPending {
		return nil, transitionError(item.ApprovalStatus, enums.ApprovalStatusApproved)
	}

	if len(item.Revision) > 0 {
		var payload RevisionPayload
		if err := json.Unmarshal(item.Revision, &payload); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode revision")
		}
		applyRevision(item, payload)
	}
	item.Revision = nil
	item.ReviewNote = nil
	item.ApprovalStatus = enums.ApprovalStatusApproved

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventInventoryApproved,
			AggregateType: enums.OutboxAggregateInventory,
			AggregateID:   item.ID,
			Actor:         &outbox.ActorRef{Wallet: actorWallet, ShopID: &shopID},
			Data:          FromModel(item),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve item")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"item_id": item.ID.String(),
			"shop_id": shopID.String(),
		}), "inventory item approved")
	}
	return FromModel(item), nil
}

// Reject keeps the live fields and records the reviewer note. PENDING only.
func (s *service) Reject(ctx context.Context, shopID, itemID uuid.UUID, input RejectInput) (*ItemDTO, error) {
	item, err := s.loadItem(ctx, shopID, itemID)
	if err != nil {
		return nil, err
	}
	if item.ApprovalStatus != enums.ApprovalStatusPending {
		return nil, transitionError(item.ApprovalStatus, enums.ApprovalStatusRejected)
	}

	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer note is required")
	}

	if !input.KeepRevision {
		item.Revision = nil
	}
	item.ReviewNote = &note
	item.ApprovalStatus = enums.ApprovalStatusRejected

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject item")
	}
	return FromModel(item), nil
}

func (s *service) loadItem(ctx context.Context, shopID, itemID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, shopID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func transitionError(from, to enums.ApprovalStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "approval transition not allowed").
		WithDetails(map[string]any{"from": from.String(), "to": to.String()})
}

func validateRevision(payload RevisionPayload) error {
	if payload.Name != nil && strings.TrimSpace(*payload.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "revised name cannot be empty")
	}
	if payload.PriceCents != nil && *payload.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "revised price cannot be negative")
	}
	if payload.StockQty != nil && *payload.StockQty < models.UnlimitedStock {
		return pkgerrors.New(pkgerrors.CodeValidation, "revised stock quantity must be -1 or greater")
	}
	return nil
}

func applyRevision(item *models.InventoryItem, payload RevisionPayload) {
	if payload.Name != nil {
		item.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.PriceCents != nil {
		item.PriceCents = *payload.PriceCents
	}
	if payload.StockQty != nil {
		item.StockQty = *payload.StockQty
	}
	if payload.Category != nil {
		item.Category = strings.TrimSpace(*payload.Category)
	}
	if payload.Tags != nil {
		item.Tags = cloneTags(*payload.Tags)
	}
	if len(payload.Attributes) > 0 {
		item.Attributes = payload.Attributes
	}
}

func cloneTags(value []string) pq.StringArray {
	if value == nil {
		return nil
	}
	res := make(pq.StringArray, len(value))
	copy(res, value)
	return res
}
