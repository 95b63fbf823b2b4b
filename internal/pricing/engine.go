package pricing

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
)

// Compute prices a cart deterministically: catalog discounts first (one per
// item, narrowest scope wins), then an optional coupon on the discounted
// subtotal. All outputs are cents and never negative.
func Compute(input Input) (*Quote, error) {
	catalog := make(map[uuid.UUID]CatalogItem, len(input.Catalog))
	for _, item := range input.Catalog {
		catalog[item.ID] = item
	}

	lines := make([]LineQuote, 0, len(input.Lines))
	subtotal := 0
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		item, ok := catalog[line.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item in cart").
				WithDetails(map[string]any{"item_id": line.ItemID.String()})
		}
		if item.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		lines = append(lines, LineQuote{
			ItemID:                item.ID,
			SKU:                   item.SKU,
			Name:                  item.Name,
			Qty:                   line.Qty,
			UnitPriceCents:        item.PriceCents,
			ChargedUnitPriceCents: item.PriceCents,
			LineTotalCents:        item.PriceCents * line.Qty,
		})
		subtotal += item.PriceCents * line.Qty
	}

	applyRules(lines, orderedRules(input.Rules), catalog)

	itemSavings := 0
	for _, line := range lines {
		itemSavings += line.SavingsCents
	}
	discounted := subtotal - itemSavings

	quote := &Quote{
		Lines:            lines,
		SubtotalCents:    subtotal,
		ItemSavingsCents: itemSavings,
		TotalCents:       discounted,
	}

	if strings.TrimSpace(input.CouponCode) != "" {
		coupon, err := resolveCoupon(input.Coupons, input.CouponCode)
		if err != nil {
			return nil, err
		}
		quote.CouponCode = &coupon.Code
		quote.CouponCents = couponDeduction(coupon, discounted)
		quote.TotalCents = discounted - quote.CouponCents
	}

	return quote, nil
}

// orderedRules sorts by scope specificity (product, collection, all) and keeps
// declaration order within a tier so "first match wins" is reproducible.
func orderedRules(rules []Rule) []Rule {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scopeRank(ordered[i].Scope) < scopeRank(ordered[j].Scope)
	})
	return ordered
}

func scopeRank(scope enums.DiscountScope) int {
	switch scope {
	case enums.DiscountScopeProduct:
		return 0
	case enums.DiscountScopeCollection:
		return 1
	default:
		return 2
	}
}

func applyRules(lines []LineQuote, rules []Rule, catalog map[uuid.UUID]CatalogItem) {
	claimed := make(map[uuid.UUID]bool)

	for _, rule := range rules {
		eligible := eligibleIndexes(lines, rule, catalog, claimed)
		if len(eligible) == 0 {
			continue
		}
		if !meetsMinimum(lines, eligible, rule) {
			continue
		}

		switch rule.Type {
		case enums.DiscountTypePercentage, enums.DiscountTypeFixedAmount:
			for _, idx := range eligible {
				applyUnitDiscount(&lines[idx], rule)
				claimed[lines[idx].ItemID] = true
			}
		case enums.DiscountTypeBuyXGetY:
			if applyBuyXGetY(lines, eligible, rule) {
				for _, idx := range eligible {
					claimed[lines[idx].ItemID] = true
				}
			}
		}
	}
}

// eligibleIndexes returns the cart lines a rule's scope matches, skipping
// items already claimed by an earlier rule.
func eligibleIndexes(lines []LineQuote, rule Rule, catalog map[uuid.UUID]CatalogItem, claimed map[uuid.UUID]bool) []int {
	var out []int
	for i, line := range lines {
		if claimed[line.ItemID] {
			continue
		}
		item, ok := catalog[line.ItemID]
		if !ok {
			continue
		}
		if scopeMatches(rule, item) {
			out = append(out, i)
		}
	}
	return out
}

func scopeMatches(rule Rule, item CatalogItem) bool {
	switch rule.Scope {
	case enums.DiscountScopeAll:
		return true
	case enums.DiscountScopeProduct:
		for _, id := range rule.AppliesToIDs {
			if id == item.ID.String() {
				return true
			}
		}
	case enums.DiscountScopeCollection:
		for _, category := range rule.AppliesToIDs {
			if strings.EqualFold(category, item.Category) {
				return true
			}
		}
	}
	return false
}

// meetsMinimum checks the aggregate threshold across every eligible line.
func meetsMinimum(lines []LineQuote, eligible []int, rule Rule) bool {
	switch rule.MinRequirement {
	case enums.MinRequirementNone, "":
		return true
	case enums.MinRequirementQuantity:
		total := 0
		for _, idx := range eligible {
			total += lines[idx].Qty
		}
		return total >= rule.MinRequirementValue
	case enums.MinRequirementAmount:
		total := 0
		for _, idx := range eligible {
			total += lines[idx].UnitPriceCents * lines[idx].Qty
		}
		return total >= rule.MinRequirementValue
	default:
		return false
	}
}

func applyUnitDiscount(line *LineQuote, rule Rule) {
	charged := line.UnitPriceCents
	switch rule.Type {
	case enums.DiscountTypePercentage:
		charged = percentOff(line.UnitPriceCents, rule.Value)
	case enums.DiscountTypeFixedAmount:
		charged = line.UnitPriceCents - rule.Value
	}
	if charged < 0 {
		charged = 0
	}

	ruleID := rule.ID
	line.ChargedUnitPriceCents = charged
	line.SavingsCents = (line.UnitPriceCents - charged) * line.Qty
	line.LineTotalCents = charged * line.Qty
	line.AppliedRuleID = &ruleID
}

// applyBuyXGetY explodes eligible units, marks the cheapest freeCount units
// free, and apportions the savings back onto their originating lines.
func applyBuyXGetY(lines []LineQuote, eligible []int, rule Rule) bool {
	if rule.BuyQty <= 0 || rule.GetQty <= 0 {
		return false
	}

	type unit struct {
		lineIdx    int
		priceCents int
	}
	var units []unit
	for _, idx := range eligible {
		for n := 0; n < lines[idx].Qty; n++ {
			units = append(units, unit{lineIdx: idx, priceCents: lines[idx].UnitPriceCents})
		}
	}

	group := rule.BuyQty + rule.GetQty
	freeCount := (len(units) / group) * rule.GetQty
	if freeCount == 0 {
		return false
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].priceCents < units[j].priceCents
	})

	ruleID := rule.ID
	for i := 0; i < freeCount; i++ {
		line := &lines[units[i].lineIdx]
		line.SavingsCents += units[i].priceCents
		line.LineTotalCents -= units[i].priceCents
		line.AppliedRuleID = &ruleID
	}
	return true
}

func resolveCoupon(coupons []Coupon, code string) (Coupon, error) {
	trimmed := strings.TrimSpace(code)
	for _, coupon := range coupons {
		if !strings.EqualFold(coupon.Code, trimmed) {
			continue
		}
		if coupon.Type == enums.DiscountTypeBuyXGetY {
			return Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon type not supported at checkout")
		}
		return coupon, nil
	}
	return Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown coupon code").
		WithDetails(map[string]any{"code": trimmed})
}

func couponDeduction(coupon Coupon, discountedSubtotal int) int {
	if discountedSubtotal <= 0 {
		return 0
	}
	var deduction int
	switch coupon.Type {
	case enums.DiscountTypePercentage:
		deduction = percentShare(discountedSubtotal, coupon.Value)
	case enums.DiscountTypeFixedAmount:
		deduction = coupon.Value
	}
	if deduction > discountedSubtotal {
		deduction = discountedSubtotal
	}
	if deduction < 0 {
		deduction = 0
	}
	return deduction
}

// percentOff returns the unit price after removing pct percent, rounded
// half-up to whole cents.
func percentOff(priceCents, pct int) int {
	price := decimal.NewFromInt(int64(priceCents))
	factor := decimal.NewFromInt(100 - int64(pct)).Div(decimal.NewFromInt(100))
	return int(price.Mul(factor).Round(0).IntPart())
}

// percentShare returns pct percent of the amount, rounded half-up.
func percentShare(amountCents, pct int) int {
	amount := decimal.NewFromInt(int64(amountCents))
	factor := decimal.NewFromInt(int64(pct)).Div(decimal.NewFromInt(100))
	return int(amount.Mul(factor).Round(0).IntPart())
}
