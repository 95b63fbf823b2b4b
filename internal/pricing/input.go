package pricing

import (
	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Line is one cart entry handed to the engine.
type Line struct {
	ItemID uuid.UUID
	Qty    int
}

// CatalogItem is the pricing-relevant slice of an inventory item.
type CatalogItem struct {
	ID         uuid.UUID
	SKU        string
	Name       string
	PriceCents int
	Category   string
}

// Rule is an active catalog discount normalized for the engine.
type Rule struct {
	ID                  uuid.UUID
	Type                enums.DiscountType
	Scope               enums.DiscountScope
	AppliesToIDs        []string
	MinRequirement      enums.MinRequirement
	MinRequirementValue int
	Value               int
	BuyQty              int
	GetQty              int
}

// Coupon is a code-redeemable deduction applied to the discounted subtotal.
type Coupon struct {
	ID    uuid.UUID
	Code  string
	Type  enums.DiscountType
	Value int
}

// Input bundles everything a quote needs.
type Input struct {
	Lines      []Line
	Catalog    []CatalogItem
	Rules      []Rule
	Coupons    []Coupon
	CouponCode string
}

// LineQuote is the priced result for one cart line.
type LineQuote struct {
	ItemID                uuid.UUID  `json:"item_id"`
	SKU                   string     `json:"sku"`
	Name                  string     `json:"name"`
	Qty                   int        `json:"qty"`
	UnitPriceCents        int        `json:"unit_price_cents"`
	ChargedUnitPriceCents int        `json:"charged_unit_price_cents"`
	SavingsCents          int        `json:"savings_cents"`
	LineTotalCents        int        `json:"line_total_cents"`
	AppliedRuleID         *uuid.UUID `json:"applied_rule_id,omitempty"`
}

// Quote is the full engine output.
type Quote struct {
	Lines             []LineQuote `json:"lines"`
	SubtotalCents     int         `json:"subtotal_cents"`
	ItemSavingsCents  int         `json:"item_savings_cents"`
	CouponCode        *string     `json:"coupon_code,omitempty"`
	CouponCents       int         `json:"coupon_cents"`
	TotalCents        int         `json:"total_cents"`
}
