package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/orders"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/pagination"
)

type checkoutLineRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid4"`
	Qty    int    `json:"qty" validate:"required,gt=0"`
}

type checkoutRequest struct {
	Lines      []checkoutLineRequest `json:"lines" validate:"required,min=1,dive"`
	CouponCode string                `json:"coupon_code,omitempty"`
	MemberID   *string               `json:"member_id,omitempty" validate:"omitempty,uuid4"`
	TipCents   int                   `json:"tip_cents,omitempty" validate:"omitempty,min=0"`
}

func (req checkoutRequest) toInput(wallet string) (orders.CheckoutInput, error) {
	input := orders.CheckoutInput{
		CouponCode:  strings.TrimSpace(req.CouponCode),
		TipCents:    req.TipCents,
		ActorWallet: wallet,
	}
	for _, line := range req.Lines {
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
		}
		input.Lines = append(input.Lines, orders.CheckoutLine{ItemID: itemID, Qty: line.Qty})
	}
	if req.MemberID != nil {
		memberID, err := uuid.Parse(*req.MemberID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id")
		}
		input.MemberID = &memberID
	}
	return input, nil
}

// OrderQuote prices a cart without persisting anything.
func OrderQuote(svc orders.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.WalletFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// OrderCheckout prices the cart server-side, decrements stock, and persists
// the order.
func OrderCheckout(svc orders.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.WalletFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList returns the shop's orders newest first, cursor paginated.
func OrderList(svc orders.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), shopID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// OrderGet returns one order with its line items.
func OrderGet(svc orders.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), shopID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
