package controllers

import (
	"net/http"
	"time"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/discounts"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type discountRequest struct {
	Name                string     `json:"name" validate:"required,min=1,max=120"`
	Type                string     `json:"type" validate:"required"`
	Scope               string     `json:"scope,omitempty"`
	AppliesToIDs        []string   `json:"applies_to_ids,omitempty"`
	MinRequirement      string     `json:"min_requirement,omitempty"`
	MinRequirementValue int        `json:"min_requirement_value,omitempty"`
	Value               int        `json:"value,omitempty"`
	BuyQty              int        `json:"buy_qty,omitempty"`
	GetQty              int        `json:"get_qty,omitempty"`
	Code                *string    `json:"code,omitempty"`
	StartsAt            *time.Time `json:"starts_at,omitempty"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
}

func (req discountRequest) toInput() (discounts.DiscountInput, error) {
	input := discounts.DiscountInput{
		Name:                req.Name,
		AppliesToIDs:        req.AppliesToIDs,
		MinRequirementValue: req.MinRequirementValue,
		Value:               req.Value,
		BuyQty:              req.BuyQty,
		GetQty:              req.GetQty,
		Code:                req.Code,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
	}

	dtype, err := enums.ParseDiscountType(req.Type)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	input.Type = dtype

	if req.Scope != "" {
		scope, err := enums.ParseDiscountScope(req.Scope)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount scope")
		}
		input.Scope = scope
	}

	if req.MinRequirement != "" {
		minReq, err := enums.ParseMinRequirement(req.MinRequirement)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minimum requirement")
		}
		input.MinRequirement = minReq
	}

	return input, nil
}

// DiscountCreate adds a discount or coupon to the shop.
func DiscountCreate(svc discounts.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Create(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

// DiscountList returns the shop's discounts with derived statuses.
func DiscountList(svc discounts.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// DiscountGet returns one discount.
func DiscountGet(svc discounts.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountID, err := validators.ParsePathUUID(r, "discountID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.GetByID(r.Context(), shopID, discountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, discount)
	}
}

// DiscountUpdate replaces a discount's writable fields.
func DiscountUpdate(svc discounts.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountID, err := validators.ParsePathUUID(r, "discountID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Update(r.Context(), shopID, discountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, discount)
	}
}

// DiscountDelete removes a discount.
func DiscountDelete(svc discounts.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountID, err := validators.ParsePathUUID(r, "discountID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), shopID, discountID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
