package controllers

import (
	"net/http"
	"strings"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/types"
)

type shopCreateRequest struct {
	Name         string       `json:"name" validate:"required,min=1,max=120"`
	Slug         string       `json:"slug" validate:"required,min=1,max=63"`
	CustomDomain *string      `json:"custom_domain,omitempty"`
	Bio          *string      `json:"bio,omitempty"`
	Theme        *types.Theme `json:"theme,omitempty"`
}

type shopUpdateRequest struct {
	Name         *string      `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Slug         *string      `json:"slug,omitempty" validate:"omitempty,min=1,max=63"`
	CustomDomain *string      `json:"custom_domain,omitempty"`
	Bio          *string      `json:"bio,omitempty"`
	Arrangement  *[]string    `json:"arrangement,omitempty"`
	Theme        *types.Theme `json:"theme,omitempty"`
}

// ShopCreate registers a new shop owned by the calling wallet.
func ShopCreate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		wallet := middleware.WalletFromContext(r.Context())
		if wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet context missing"))
			return
		}

		var payload shopCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Create(r.Context(), wallet, shops.CreateShopInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			CustomDomain: payload.CustomDomain,
			Bio:          payload.Bio,
			Theme:        payload.Theme,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

// ShopList returns the calling wallet's shops.
func ShopList(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		wallet := middleware.WalletFromContext(r.Context())
		if wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet context missing"))
			return
		}

		list, err := svc.ListByOwner(r.Context(), wallet)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ShopGet returns one shop after an ownership check.
func ShopGet(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Authorize(r.Context(), actorFromRequest(r), shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.GetByID(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// ShopUpdate adjusts the mutable shop fields.
func ShopUpdate(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shopUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Update(r.Context(), actorFromRequest(r), shopID, shops.UpdateShopInput{
			Name:         payload.Name,
			Slug:         payload.Slug,
			CustomDomain: payload.CustomDomain,
			Bio:          payload.Bio,
			Arrangement:  payload.Arrangement,
			Theme:        payload.Theme,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// ShopDelete removes a shop.
func ShopDelete(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actorFromRequest(r), shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// ShopResolve maps a slug or custom domain to a shop. Public, storefronts
// call it on first load.
func ShopResolve(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		domain := strings.TrimSpace(r.URL.Query().Get("domain"))

		shop, err := svc.Resolve(r.Context(), slug, domain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// ShopBranding serves the public branding payload with the favicon cascade
// applied.
func ShopBranding(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branding, err := svc.Branding(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, branding)
	}
}
