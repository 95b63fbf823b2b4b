package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Theme is the per-shop storefront appearance document, stored as jsonb.
type Theme struct {
	PrimaryColor   string           `json:"primary_color,omitempty"`
	SecondaryColor string           `json:"secondary_color,omitempty"`
	AccentColor    string           `json:"accent_color,omitempty"`
	LogoURL        *string          `json:"logo_url,omitempty"`
	FaviconURL     *string          `json:"favicon_url,omitempty"`
	LayoutMode     enums.LayoutMode `json:"layout_mode,omitempty"`
}

// Value implements driver.Valuer for jsonb storage.
func (t Theme) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for the jsonb theme column.
func (t *Theme) Scan(value interface{}) error {
	if value == nil {
		*t = Theme{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported theme column type %T", value)
	}
}
