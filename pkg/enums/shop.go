package enums

import "fmt"

// LayoutMode selects how a storefront arranges its catalog.
type LayoutMode string

const (
	LayoutModeGrid LayoutMode = "grid"
	LayoutModeList LayoutMode = "list"
	LayoutModeMenu LayoutMode = "menu"
)

var validLayoutModes = []LayoutMode{
	LayoutModeGrid,
	LayoutModeList,
	LayoutModeMenu,
}

// String implements fmt.Stringer.
func (m LayoutMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known LayoutMode.
func (m LayoutMode) IsValid() bool {
	for _, candidate := range validLayoutModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseLayoutMode converts raw input into a LayoutMode.
func ParseLayoutMode(value string) (LayoutMode, error) {
	for _, candidate := range validLayoutModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid layout mode %q", value)
}
