package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/internal/pricing"
	"github.com/calderwoods/shopkit-backend/pkg/db"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
)

type discountRepository interface {
	Create(ctx context.Context, discount *models.Discount) error
	FindByID(ctx context.Context, shopID, discountID uuid.UUID) (*models.Discount, error)
	FindByCode(ctx context.Context, shopID uuid.UUID, code string) (*models.Discount, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.Discount, error)
	ListCurrent(ctx context.Context, shopID uuid.UUID, now time.Time) ([]models.Discount, error)
	Update(ctx context.Context, discount *models.Discount) error
	Delete(ctx context.Context, shopID, discountID uuid.UUID) error
}

// DiscountInput carries the writable discount fields for create and update.
type DiscountInput struct {
	Name                string
	Type                enums.DiscountType
	Scope               enums.DiscountScope
	AppliesToIDs        []string
	MinRequirement      enums.MinRequirement
	MinRequirementValue int
	Value               int
	BuyQty              int
	GetQty              int
	Code                *string
	StartsAt            *time.Time
	EndsAt              *time.Time
}

// Service exposes discount and coupon operations.
type Service interface {
	Create(ctx context.Context, shopID uuid.UUID, input DiscountInput) (*DiscountDTO, error)
	GetByID(ctx context.Context, shopID, discountID uuid.UUID) (*DiscountDTO, error)
	List(ctx context.Context, shopID uuid.UUID) ([]DiscountDTO, error)
	Update(ctx context.Context, shopID, discountID uuid.UUID, input DiscountInput) (*DiscountDTO, error)
	Delete(ctx context.Context, shopID, discountID uuid.UUID) error
	PricingRules(ctx context.Context, shopID uuid.UUID, now time.Time) ([]pricing.Rule, []pricing.Coupon, error)
}

type service struct {
	repo discountRepository
	now  func() time.Time
}

// NewService builds a discount service with the provided repository.
func NewService(repo discountRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, shopID uuid.UUID, input DiscountInput) (*DiscountDTO, error) {
	discount, err := buildDiscount(shopID, input)
	if err != nil {
		return nil, err
	}
	if err := s.checkCodeAvailable(ctx, shopID, discount, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, discount); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return FromModel(discount, s.now()), nil
}

func (s *service) GetByID(ctx context.Context, shopID, discountID uuid.UUID) (*DiscountDTO, error) {
	discount, err := s.loadDiscount(ctx, shopID, discountID)
	if err != nil {
		return nil, err
	}
	return FromModel(discount, s.now()), nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID) ([]DiscountDTO, error) {
	rows, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	now := s.now()
	out := make([]DiscountDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], now))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, shopID, discountID uuid.UUID, input DiscountInput) (*DiscountDTO, error) {
	existing, err := s.loadDiscount(ctx, shopID, discountID)
	if err != nil {
		return nil, err
	}

	replacement, err := buildDiscount(shopID, input)
	if err != nil {
		return nil, err
	}
	replacement.ID = existing.ID
	replacement.CreatedAt = existing.CreatedAt

	if err := s.checkCodeAvailable(ctx, shopID, replacement, existing.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, replacement); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
	}
	return FromModel(replacement, s.now()), nil
}

func (s *service) Delete(ctx context.Context, shopID, discountID uuid.UUID) error {
	if err := s.repo.Delete(ctx, shopID, discountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete discount")
	}
	return nil
}

// PricingRules loads the discounts active at now, split into automatic rules
// and code-gated coupons in the pricing engine's shape.
func (s *service) PricingRules(ctx context.Context, shopID uuid.UUID, now time.Time) ([]pricing.Rule, []pricing.Coupon, error) {
	rows, err := s.repo.ListCurrent(ctx, shopID, now)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active discounts")
	}

	var rules []pricing.Rule
	var coupons []pricing.Coupon
	for _, row := range rows {
		if StatusAt(row, now) != enums.DiscountStatusActive {
			continue
		}
		if row.IsCoupon() {
			coupons = append(coupons, pricing.Coupon{
				ID:    row.ID,
				Code:  *row.Code,
				Type:  row.Type,
				Value: row.Value,
			})
			continue
		}
		rules = append(rules, pricing.Rule{
			ID:                  row.ID,
			Type:                row.Type,
			Scope:               row.Scope,
			AppliesToIDs:        row.AppliesToIDs,
			MinRequirement:      row.MinRequirement,
			MinRequirementValue: row.MinRequirementValue,
			Value:               row.Value,
			BuyQty:              row.BuyQty,
			GetQty:              row.GetQty,
		})
	}
	return rules, coupons, nil
}

// checkCodeAvailable refuses a coupon code already held by another discount
// in the shop. The partial unique index still backs this up against races.
func (s *service) checkCodeAvailable(ctx context.Context, shopID uuid.UUID, discount *models.Discount, selfID uuid.UUID) error {
	if discount.Code == nil {
		return nil
	}
	holder, err := s.repo.FindByCode(ctx, shopID, *discount.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	}
	if holder.ID == selfID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "coupon code already in use")
}

func (s *service) loadDiscount(ctx context.Context, shopID, discountID uuid.UUID) (*models.Discount, error) {
	discount, err := s.repo.FindByID(ctx, shopID, discountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	return discount, nil
}

func buildDiscount(shopID uuid.UUID, input DiscountInput) (*models.Discount, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	scope := input.Scope
	if scope == "" {
		scope = enums.DiscountScopeAll
	}
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount scope")
	}
	if scope != enums.DiscountScopeAll && len(input.AppliesToIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scoped discounts need applies_to_ids")
	}

	minReq := input.MinRequirement
	if minReq == "" {
		minReq = enums.MinRequirementNone
	}
	if !minReq.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid minimum requirement")
	}
	if minReq != enums.MinRequirementNone && input.MinRequirementValue <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum requirement value must be positive")
	}

	switch input.Type {
	case enums.DiscountTypePercentage:
		if input.Value < 1 || input.Value > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value must be between 1 and 100")
		}
	case enums.DiscountTypeFixedAmount:
		if input.Value <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed amount must be positive")
		}
	case enums.DiscountTypeBuyXGetY:
		if input.BuyQty <= 0 || input.GetQty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy and get quantities must be positive")
		}
		if input.Code != nil && strings.TrimSpace(*input.Code) != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy_x_get_y cannot be a coupon")
		}
	}

	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}

	discount := &models.Discount{
		ShopID:              shopID,
		Name:                name,
		Type:                input.Type,
		Scope:               scope,
		AppliesToIDs:        cloneIDs(input.AppliesToIDs),
		MinRequirement:      minReq,
		MinRequirementValue: input.MinRequirementValue,
		Value:               input.Value,
		BuyQty:              input.BuyQty,
		GetQty:              input.GetQty,
		StartsAt:            input.StartsAt,
		EndsAt:              input.EndsAt,
	}

	if input.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*input.Code))
		if code != "" {
			discount.Code = &code
		}
	}
	return discount, nil
}

func cloneIDs(value []string) pq.StringArray {
	if value == nil {
		return nil
	}
	res := make(pq.StringArray, len(value))
	copy(res, value)
	return res
}
