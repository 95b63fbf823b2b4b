package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderwoods/shopkit-backend/pkg/enums"
)

// Discount is a merchant price-reduction rule. A row with a redemption Code
// is a coupon and only applies when the code is presented at checkout.
//
// Value holds the percentage (0-100) for percentage discounts and cents for
// fixed_amount; BuyQty/GetQty drive buy_x_get_y. MinRequirementValue is cents
// for amount thresholds and a count for quantity thresholds.
type Discount struct {
	ID                  uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID              uuid.UUID            `gorm:"column:shop_id;type:uuid;not null;index"`
	Name                string               `gorm:"column:name;not null"`
	Type                enums.DiscountType   `gorm:"column:type;not null"`
	Scope               enums.DiscountScope  `gorm:"column:scope;not null;default:'all'"`
	AppliesToIDs        pq.StringArray       `gorm:"column:applies_to_ids;type:text[]"`
	MinRequirement      enums.MinRequirement `gorm:"column:min_requirement;not null;default:'none'"`
	MinRequirementValue int                  `gorm:"column:min_requirement_value;not null;default:0"`
	Value               int                  `gorm:"column:value;not null;default:0"`
	BuyQty              int                  `gorm:"column:buy_qty;not null;default:0"`
	GetQty              int                  `gorm:"column:get_qty;not null;default:0"`
	Code                *string              `gorm:"column:code;uniqueIndex:ux_discounts_shop_code,priority:2"`
	StartsAt            *time.Time           `gorm:"column:starts_at"`
	EndsAt              *time.Time           `gorm:"column:ends_at"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// IsCoupon reports whether the discount requires a redemption code.
func (d Discount) IsCoupon() bool {
	return d.Code != nil && *d.Code != ""
}
