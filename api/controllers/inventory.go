package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/inventory"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type itemCreateRequest struct {
	SKU        string          `json:"sku" validate:"required,min=1,max=64"`
	Name       string          `json:"name" validate:"required,min=1,max=160"`
	PriceCents int             `json:"price_cents" validate:"required,gt=0"`
	StockQty   int             `json:"stock_qty" validate:"min=-1"`
	Category   string          `json:"category,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

type itemUpdateRequest struct {
	StockQty *int      `json:"stock_qty,omitempty" validate:"omitempty,min=-1"`
	Tags     *[]string `json:"tags,omitempty"`
}

type itemRejectRequest struct {
	Note         string `json:"note" validate:"required,min=1"`
	KeepRevision bool   `json:"keep_revision,omitempty"`
}

// shopScope authorizes the caller against the shop in the URL and returns the
// shop ID.
func shopScope(r *http.Request, shopSvc shops.Service) (uuid.UUID, error) {
	shopID, err := validators.ParsePathUUID(r, "shopID")
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := shopSvc.Authorize(r.Context(), actorFromRequest(r), shopID); err != nil {
		return uuid.Nil, err
	}
	return shopID, nil
}

// InventoryCreate adds an item in pending review state.
func InventoryCreate(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), shopID, inventory.CreateItemInput{
			SKU:        payload.SKU,
			Name:       payload.Name,
			PriceCents: payload.PriceCents,
			StockQty:   payload.StockQty,
			Category:   payload.Category,
			Tags:       payload.Tags,
			Attributes: payload.Attributes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// InventoryList returns the shop's items, optionally filtered by approval
// status.
func InventoryList(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.ApprovalStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseApprovalStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		items, err := svc.List(r.Context(), shopID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// InventoryGet returns one item.
func InventoryGet(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetByID(r.Context(), shopID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryUpdate changes the operational fields that bypass review.
func InventoryUpdate(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), shopID, itemID, inventory.UpdateItemInput{
			StockQty: payload.StockQty,
			Tags:     payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryDelete removes an item.
func InventoryDelete(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), shopID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// InventorySubmitRevision queues catalog content changes for review.
func InventorySubmitRevision(svc inventory.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload inventory.RevisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SubmitRevision(r.Context(), shopID, itemID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryApprove applies a pending revision. Platform reviewers only; the
// route carries the admin guard.
func InventoryApprove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Approve(r.Context(), middleware.WalletFromContext(r.Context()), shopID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryReject declines a pending revision with a reviewer note.
func InventoryReject(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		shopID, err := validators.ParsePathUUID(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParsePathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemRejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Reject(r.Context(), shopID, itemID, inventory.RejectInput{
			Note:         payload.Note,
			KeepRevision: payload.KeepRevision,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
