package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/admin"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type adminRoleRequest struct {
	Wallet string `json:"wallet" validate:"required,min=1"`
	Role   string `json:"role" validate:"required"`
}

type adminRoleUpdateRequest struct {
	Role string `json:"role" validate:"required"`
}

// AdminRoleCreate grants a wallet a platform role.
func AdminRoleCreate(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var payload adminRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseAdminRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		user, err := svc.Create(r.Context(), payload.Wallet, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AdminRoleList returns all platform role holders.
func AdminRoleList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		users, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, users)
	}
}

// AdminRoleUpdate changes a wallet's platform role. The last super admin
// cannot be demoted.
func AdminRoleUpdate(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		wallet := strings.TrimSpace(chi.URLParam(r, "wallet"))
		if wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required"))
			return
		}

		var payload adminRoleUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseAdminRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		user, err := svc.UpdateRole(r.Context(), wallet, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// AdminRoleDelete revokes a wallet's platform role. The last super admin
// cannot be removed.
func AdminRoleDelete(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		wallet := strings.TrimSpace(chi.URLParam(r, "wallet"))
		if wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required"))
			return
		}

		if err := svc.Delete(r.Context(), wallet); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
