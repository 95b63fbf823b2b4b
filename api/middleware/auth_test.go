package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/internal/admin"
	pkgauth "github.com/calderwoods/shopkit-backend/pkg/auth"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	pkgredis "github.com/calderwoods/shopkit-backend/pkg/redis"
)

type stubAdminResolver struct {
	role enums.AdminRole
}

func (s *stubAdminResolver) GetByWallet(_ context.Context, wallet string) (*admin.UserDTO, error) {
	if s.role == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
	}
	return &admin.UserDTO{Wallet: wallet, Role: s.role}, nil
}

func TestWalletAuthRejectsMissingHeader(t *testing.T) {
	handler := WalletAuth(&stubAdminResolver{}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestWalletAuthSeedsContext(t *testing.T) {
	var gotWallet, gotRole string
	handler := WalletAuth(&stubAdminResolver{role: enums.AdminRolePlatformAdmin}, nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotWallet = WalletFromContext(r.Context())
		gotRole = AdminRoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Wallet", "0xabc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotWallet != "0xabc" {
		t.Fatalf("expected wallet in context, got %q", gotWallet)
	}
	if gotRole != string(enums.AdminRolePlatformAdmin) {
		t.Fatalf("expected admin role in context, got %q", gotRole)
	}
}

func TestWalletAuthMerchantWalletHasNoRole(t *testing.T) {
	var gotRole string
	handler := WalletAuth(&stubAdminResolver{}, nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotRole = AdminRoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Wallet", "0xmerchant")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotRole != "" {
		t.Fatalf("expected no admin role, got %q", gotRole)
	}
}

type stubSessionStore struct {
	active bool
}

func (s *stubSessionStore) Get(context.Context, string) (string, error) {
	if !s.active {
		return "", pkgredis.Nil
	}
	return "1", nil
}

func (s *stubSessionStore) DeviceSessionKey(deviceID string) string {
	return "sk:device_session:" + deviceID
}

func deviceTokenConfig() config.DeviceTokenConfig {
	return config.DeviceTokenConfig{Secret: "test-secret", Issuer: "shopkit-test", ExpirationMinutes: 5}
}

func mintTestToken(t *testing.T, shopID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintDeviceToken(deviceTokenConfig(), time.Now(), pkgauth.DeviceTokenPayload{
		DeviceID: uuid.New(),
		ShopID:   shopID,
		Wallet:   "0xowner",
		Label:    "register 1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestDeviceAuthRejectsMissingBearer(t *testing.T) {
	handler := DeviceAuth(deviceTokenConfig(), &stubSessionStore{active: true}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestDeviceAuthRejectsExpiredSession(t *testing.T) {
	handler := DeviceAuth(deviceTokenConfig(), &stubSessionStore{}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for lapsed session, got %d", w.Code)
	}
}

func TestDeviceAuthSeedsDeviceContext(t *testing.T) {
	shopID := uuid.New()
	var gotWallet, gotShop string
	handler := DeviceAuth(deviceTokenConfig(), &stubSessionStore{active: true}, nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotWallet = WalletFromContext(r.Context())
		gotShop = ShopIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, shopID))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotWallet != "0xowner" {
		t.Fatalf("expected pairing wallet in context, got %q", gotWallet)
	}
	if gotShop != shopID.String() {
		t.Fatalf("expected claimed shop in context, got %q", gotShop)
	}
}

func TestDeviceShopMatchBlocksOtherShops(t *testing.T) {
	shopID := uuid.New()

	router := chi.NewRouter()
	router.With(
		DeviceAuth(deviceTokenConfig(), &stubSessionStore{active: true}, nil),
		DeviceShopMatch(nil),
	).Post("/shops/{shopID}/quotes", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/shops/"+uuid.NewString()+"/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, shopID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign shop, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/shops/"+shopID.String()+"/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, shopID))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected paired shop to pass, got %d", w.Code)
	}
}

func TestRequireAdminBlocksMerchants(t *testing.T) {
	handler := RequireAdmin(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithWallet(req.Context(), "0xmerchant"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdminRoleSubset(t *testing.T) {
	handler := RequireAdmin(nil, enums.AdminRolePlatformSuperAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithAdminRole(req.Context(), string(enums.AdminRolePartnerAdmin)))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
