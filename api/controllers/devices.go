package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	pkgauth "github.com/calderwoods/shopkit-backend/pkg/auth"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type deviceSessionWriter interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeviceSessionKey(deviceID string) string
}

type devicePairRequest struct {
	ShopID string `json:"shop_id" validate:"required,uuid4"`
	Label  string `json:"label,omitempty" validate:"omitempty,max=64"`
}

type devicePairResponse struct {
	DeviceID  uuid.UUID `json:"device_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DevicePair mints a short-lived JWT binding a POS device to a shop. Only the
// shop owner (or a platform admin) may pair devices.
func DevicePair(shopSvc shops.Service, sessions deviceSessionWriter, cfg config.DeviceTokenConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if shopSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		actor := actorFromRequest(r)
		if actor.Wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet context missing"))
			return
		}

		var payload devicePairRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shopID, err := uuid.Parse(payload.ShopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop id"))
			return
		}

		if _, err := shopSvc.Authorize(r.Context(), actor, shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceID := uuid.New()
		now := time.Now().UTC()
		token, err := pkgauth.MintDeviceToken(cfg, now, pkgauth.DeviceTokenPayload{
			DeviceID: deviceID,
			ShopID:   shopID,
			Wallet:   actor.Wallet,
			Label:    payload.Label,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint device token"))
			return
		}

		if sessions != nil {
			key := sessions.DeviceSessionKey(deviceID.String())
			if err := sessions.Set(r.Context(), key, shopID.String(), cfg.TTL()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record device session"))
				return
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, devicePairResponse{
			DeviceID:  deviceID,
			Token:     token,
			ExpiresAt: now.Add(cfg.TTL()),
		})
	}
}

func actorFromRequest(r *http.Request) shops.Actor {
	return shops.Actor{
		Wallet:  middleware.WalletFromContext(r.Context()),
		IsAdmin: middleware.AdminRoleFromContext(r.Context()) != "",
	}
}
