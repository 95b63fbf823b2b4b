package enums

import "fmt"

// DiscountType distinguishes the three catalog discount mechanics.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
	DiscountTypeBuyXGetY    DiscountType = "buy_x_get_y"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixedAmount,
	DiscountTypeBuyXGetY,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// DiscountScope narrows which catalog items a discount can touch.
type DiscountScope string

const (
	DiscountScopeAll        DiscountScope = "all"
	DiscountScopeCollection DiscountScope = "collection"
	DiscountScopeProduct    DiscountScope = "product"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeAll,
	DiscountScopeCollection,
	DiscountScopeProduct,
}

// String implements fmt.Stringer.
func (s DiscountScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountScope.
func (s DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDiscountScope converts raw input into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}

// MinRequirement gates discount activation on an aggregate threshold.
type MinRequirement string

const (
	MinRequirementNone     MinRequirement = "none"
	MinRequirementAmount   MinRequirement = "amount"
	MinRequirementQuantity MinRequirement = "quantity"
)

var validMinRequirements = []MinRequirement{
	MinRequirementNone,
	MinRequirementAmount,
	MinRequirementQuantity,
}

// String implements fmt.Stringer.
func (m MinRequirement) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MinRequirement.
func (m MinRequirement) IsValid() bool {
	for _, candidate := range validMinRequirements {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMinRequirement converts raw input into a MinRequirement.
func ParseMinRequirement(value string) (MinRequirement, error) {
	for _, candidate := range validMinRequirements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid minimum requirement %q", value)
}

// DiscountStatus is derived from the schedule window, never stored.
type DiscountStatus string

const (
	DiscountStatusActive    DiscountStatus = "active"
	DiscountStatusScheduled DiscountStatus = "scheduled"
	DiscountStatusExpired   DiscountStatus = "expired"
)

// String implements fmt.Stringer.
func (s DiscountStatus) String() string {
	return string(s)
}
