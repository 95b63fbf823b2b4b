package auth

import (
	"fmt"
	"time"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintDeviceToken issues a signed JWT for a paired POS device.
func MintDeviceToken(cfg config.DeviceTokenConfig, now time.Time, payload DeviceTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("device token secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("device token issuer is required")
	}
	if cfg.TTL() <= 0 {
		return "", fmt.Errorf("device token expiration must be positive")
	}
	if payload.DeviceID == uuid.Nil {
		return "", fmt.Errorf("device id is required")
	}
	if payload.ShopID == uuid.Nil {
		return "", fmt.Errorf("shop id is required")
	}
	if payload.Wallet == "" {
		return "", fmt.Errorf("wallet is required")
	}

	claims := DeviceTokenClaims{
		DeviceID: payload.DeviceID,
		ShopID:   payload.ShopID,
		Wallet:   payload.Wallet,
		Label:    payload.Label,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseDeviceToken validates the JWT string and returns typed claims.
func ParseDeviceToken(cfg config.DeviceTokenConfig, tokenString string) (*DeviceTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("device token secret is required")
	}

	claims := &DeviceTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
