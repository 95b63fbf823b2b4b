package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/internal/admin"
	pkgauth "github.com/calderwoods/shopkit-backend/pkg/auth"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	pkgredis "github.com/calderwoods/shopkit-backend/pkg/redis"
)

const walletHeader = "X-Wallet"

type adminResolver interface {
	GetByWallet(ctx context.Context, wallet string) (*admin.UserDTO, error)
}

type deviceSessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	DeviceSessionKey(deviceID string) string
}

// WalletAuth reads the caller's wallet from the X-Wallet header and seeds the
// request context. A wallet holding a platform role also gets that role
// attached; everyone else proceeds as a plain merchant wallet.
func WalletAuth(admins adminResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wallet := strings.TrimSpace(r.Header.Get(walletHeader))
			if wallet == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing wallet"))
				return
			}

			ctx := WithWallet(r.Context(), wallet)

			role := ""
			if admins != nil {
				record, err := admins.GetByWallet(ctx, wallet)
				switch {
				case err == nil:
					role = string(record.Role)
				case isNotFound(err):
					// plain merchant wallet
				default:
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve wallet role"))
					return
				}
			}
			if role != "" {
				ctx = context.WithValue(ctx, ctxAdminRole, role)
			}

			if logg != nil {
				ctx = logg.WithWallet(ctx, wallet)
				if role != "" {
					ctx = logg.WithActorRole(ctx, role)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceAuth validates the bearer JWT minted at device pairing and checks the
// device session is still active in redis.
func DeviceAuth(cfg config.DeviceTokenConfig, sessions deviceSessionStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseDeviceToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid device token"))
				return
			}

			if sessions != nil {
				_, err := sessions.Get(r.Context(), sessions.DeviceSessionKey(claims.DeviceID.String()))
				if err != nil {
					if errors.Is(err, pkgredis.Nil) {
						responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "device session expired"))
						return
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate device session"))
					return
				}
			}

			ctx := WithWallet(r.Context(), claims.Wallet)
			ctx = context.WithValue(ctx, ctxDeviceID, claims.DeviceID.String())
			ctx = context.WithValue(ctx, ctxShopID, claims.ShopID.String())

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"wallet":    claims.Wallet,
					"device_id": claims.DeviceID.String(),
					"shop_id":   claims.ShopID.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceShopMatch refuses device credentials presented against another
// shop's routes. It must run after DeviceAuth has seeded the shop claim.
func DeviceShopMatch(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claimed := ShopIDFromContext(r.Context())
			if claimed == "" || claimed != chi.URLParam(r, "shopID") {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "device is paired to a different shop"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isNotFound(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeNotFound
}
