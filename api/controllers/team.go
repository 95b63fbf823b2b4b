package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/api/validators"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/internal/team"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
)

type memberCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
	Role string `json:"role,omitempty"`
	PIN  string `json:"pin" validate:"required"`
}

type memberUpdateRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Role *string `json:"role,omitempty"`
	PIN  *string `json:"pin,omitempty"`
}

type verifyPINRequest struct {
	PIN string `json:"pin" validate:"required"`
}

type closeSessionRequest struct {
	TipsCents *int `json:"tips_cents,omitempty" validate:"omitempty,min=0"`
}

// TeamCreateMember registers a member with an argon2id-hashed PIN.
func TeamCreateMember(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload memberCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := team.CreateMemberInput{Name: payload.Name, PIN: payload.PIN}
		if payload.Role != "" {
			role, err := enums.ParseTeamRole(payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = role
		}

		member, err := svc.CreateMember(r.Context(), shopID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// TeamListMembers returns the shop's roster.
func TeamListMembers(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		members, err := svc.ListMembers(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, members)
	}
}

// TeamGetMember returns one member.
func TeamGetMember(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.GetMember(r.Context(), shopID, memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// TeamUpdateMember adjusts a member's name, role, or PIN.
func TeamUpdateMember(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload memberUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := team.UpdateMemberInput{Name: payload.Name, PIN: payload.PIN}
		if payload.Role != nil {
			role, err := enums.ParseTeamRole(*payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}

		member, err := svc.UpdateMember(r.Context(), shopID, memberID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// TeamDeleteMember removes a member unless they have an open session.
func TeamDeleteMember(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteMember(r.Context(), shopID, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// TeamVerifyPIN checks a member's PIN. Rate limited per member and per IP.
func TeamVerifyPIN(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPINRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.VerifyPIN(r.Context(), shopID, memberID, payload.PIN, clientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// TeamClockIn opens a work session for the member.
func TeamClockIn(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ClockIn(r.Context(), shopID, memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// TeamListSessions returns a member's work sessions.
func TeamListSessions(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := validators.ParsePathUUID(r, "memberID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessions, err := svc.ListSessions(r.Context(), shopID, memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessions)
	}
}

// TeamCloseSession clocks a member out, optionally recording tips.
func TeamCloseSession(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := validators.ParsePathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload closeSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CloseSession(r.Context(), shopID, sessionID, team.CloseSessionInput{
			TipsCents: payload.TipsCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// TeamMarkTipsPaid settles a closed session's tips.
func TeamMarkTipsPaid(svc team.Service, shopSvc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := shopScope(r, shopSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := validators.ParsePathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.MarkTipsPaid(r.Context(), middleware.WalletFromContext(r.Context()), shopID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
