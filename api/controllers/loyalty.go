package controllers

import (
	"net/http"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/loyalty"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type loyaltyConfigRequest struct {
	BaseXP     int     `json:"base_xp" validate:"required,gt=0"`
	GrowthRate float64 `json:"growth_rate" validate:"required,min=1"`
	MaxLevel   int     `json:"max_level" validate:"required,min=1"`
}

// LoyaltyGetConfig returns the shop's XP curve, falling back to the platform
// default.
func LoyaltyGetConfig(svc loyalty.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.GetConfig(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

// LoyaltyUpdateConfig replaces the shop's XP curve.
func LoyaltyUpdateConfig(svc loyalty.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload loyaltyConfigRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.UpdateConfig(r.Context(), shopID, loyalty.Curve{
			BaseXP:     payload.BaseXP,
			GrowthRate: payload.GrowthRate,
			MaxLevel:   payload.MaxLevel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cfg)
	}
}

// LoyaltyProfile projects an XP total onto the shop's curve.
func LoyaltyProfile(svc loyalty.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		xp, err := validators.ParseQueryInt(r, "xp", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		progress, err := svc.Profile(r.Context(), shopID, xp)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, progress)
	}
}
