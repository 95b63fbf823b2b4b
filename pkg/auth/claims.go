package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DeviceTokenPayload captures the data available when pairing a POS device.
type DeviceTokenPayload struct {
	DeviceID uuid.UUID
	ShopID   uuid.UUID
	Wallet   string
	Label    string
}

// DeviceTokenClaims represents the typed JWT issued to paired devices.
type DeviceTokenClaims struct {
	DeviceID uuid.UUID `json:"device_id"`
	ShopID   uuid.UUID `json:"shop_id"`
	Wallet   string    `json:"wallet"`
	Label    string    `json:"label,omitempty"`
	jwt.RegisteredClaims
}
