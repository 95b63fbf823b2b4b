package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calderwoods/shopkit-backend/internal/admin"
	"github.com/calderwoods/shopkit-backend/internal/discounts"
	"github.com/calderwoods/shopkit-backend/internal/inventory"
	"github.com/calderwoods/shopkit-backend/internal/loyalty"
	"github.com/calderwoods/shopkit-backend/internal/orders"
	"github.com/calderwoods/shopkit-backend/internal/packages"
	"github.com/calderwoods/shopkit-backend/internal/pricing"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/internal/team"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/pagination"
	"github.com/calderwoods/shopkit-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubShopService struct{}

func (stubShopService) Create(ctx context.Context, ownerWallet string, input shops.CreateShopInput) (*shops.ShopDTO, error) {
	panic("unimplemented")
}

func (stubShopService) GetByID(ctx context.Context, id uuid.UUID) (*shops.ShopDTO, error) {
	panic("unimplemented")
}

func (stubShopService) Resolve(ctx context.Context, slug, domain string) (*shops.ShopDTO, error) {
	return &shops.ShopDTO{ID: uuid.New(), Slug: slug}, nil
}

func (stubShopService) ListByOwner(ctx context.Context, wallet string) ([]shops.ShopDTO, error) {
	return []shops.ShopDTO{}, nil
}

func (stubShopService) Update(ctx context.Context, actor shops.Actor, shopID uuid.UUID, input shops.UpdateShopInput) (*shops.ShopDTO, error) {
	panic("unimplemented")
}

func (stubShopService) Delete(ctx context.Context, actor shops.Actor, shopID uuid.UUID) error {
	panic("unimplemented")
}

func (stubShopService) Branding(ctx context.Context, shopID uuid.UUID) (*shops.BrandingDTO, error) {
	return &shops.BrandingDTO{}, nil
}

func (stubShopService) Authorize(ctx context.Context, actor shops.Actor, shopID uuid.UUID) (*models.Shop, error) {
	return &models.Shop{ID: shopID, OwnerWallet: actor.Wallet}, nil
}

type stubInventoryService struct{}

func (stubInventoryService) Create(ctx context.Context, shopID uuid.UUID, input inventory.CreateItemInput) (*inventory.ItemDTO, error) {
	panic("unimplemented")
}

func (stubInventoryService) GetByID(ctx context.Context, shopID, itemID uuid.UUID) (*inventory.ItemDTO, error) {
	panic("unimplemented")
}

func (stubInventoryService) List(ctx context.Context, shopID uuid.UUID, status *enums.ApprovalStatus) ([]inventory.ItemDTO, error) {
	return []inventory.ItemDTO{}, nil
}

func (stubInventoryService) Update(ctx context.Context, shopID, itemID uuid.UUID, input inventory.UpdateItemInput) (*inventory.ItemDTO, error) {
	panic("unimplemented")
}

func (stubInventoryService) Delete(ctx context.Context, shopID, itemID uuid.UUID) error {
	panic("unimplemented")
}

func (stubInventoryService) SubmitRevision(ctx context.Context, shopID, itemID uuid.UUID, payload inventory.RevisionPayload) (*inventory.ItemDTO, error) {
	panic("unimplemented")
}

func (stubInventoryService) Approve(ctx context.Context, actorWallet string, shopID, itemID uuid.UUID) (*inventory.ItemDTO, error) {
	return &inventory.ItemDTO{ID: itemID}, nil
}

func (stubInventoryService) Reject(ctx context.Context, shopID, itemID uuid.UUID, input inventory.RejectInput) (*inventory.ItemDTO, error) {
	panic("unimplemented")
}

type stubTeamService struct{}

func (stubTeamService) CreateMember(ctx context.Context, shopID uuid.UUID, input team.CreateMemberInput) (*team.MemberDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) GetMember(ctx context.Context, shopID, memberID uuid.UUID) (*team.MemberDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) ListMembers(ctx context.Context, shopID uuid.UUID) ([]team.MemberDTO, error) {
	return []team.MemberDTO{}, nil
}

func (stubTeamService) UpdateMember(ctx context.Context, shopID, memberID uuid.UUID, input team.UpdateMemberInput) (*team.MemberDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) DeleteMember(ctx context.Context, shopID, memberID uuid.UUID) error {
	panic("unimplemented")
}

func (stubTeamService) VerifyPIN(ctx context.Context, shopID, memberID uuid.UUID, pin, clientIP string) (*team.MemberDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) ClockIn(ctx context.Context, shopID, memberID uuid.UUID) (*team.SessionDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) CloseSession(ctx context.Context, shopID, sessionID uuid.UUID, input team.CloseSessionInput) (*team.SessionDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) MarkTipsPaid(ctx context.Context, actorWallet string, shopID, sessionID uuid.UUID) (*team.SessionDTO, error) {
	panic("unimplemented")
}

func (stubTeamService) ListSessions(ctx context.Context, shopID, memberID uuid.UUID) ([]team.SessionDTO, error) {
	panic("unimplemented")
}

type stubDiscountService struct{}

func (stubDiscountService) Create(ctx context.Context, shopID uuid.UUID, input discounts.DiscountInput) (*discounts.DiscountDTO, error) {
	panic("unimplemented")
}

func (stubDiscountService) GetByID(ctx context.Context, shopID, discountID uuid.UUID) (*discounts.DiscountDTO, error) {
	panic("unimplemented")
}

func (stubDiscountService) List(ctx context.Context, shopID uuid.UUID) ([]discounts.DiscountDTO, error) {
	return []discounts.DiscountDTO{}, nil
}

func (stubDiscountService) Update(ctx context.Context, shopID, discountID uuid.UUID, input discounts.DiscountInput) (*discounts.DiscountDTO, error) {
	panic("unimplemented")
}

func (stubDiscountService) Delete(ctx context.Context, shopID, discountID uuid.UUID) error {
	panic("unimplemented")
}

func (stubDiscountService) PricingRules(ctx context.Context, shopID uuid.UUID, now time.Time) ([]pricing.Rule, []pricing.Coupon, error) {
	return nil, nil, nil
}

type stubOrderService struct{}

func (stubOrderService) Quote(ctx context.Context, shopID uuid.UUID, input orders.CheckoutInput) (*pricing.Quote, error) {
	panic("unimplemented")
}

func (stubOrderService) Checkout(ctx context.Context, shopID uuid.UUID, input orders.CheckoutInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) GetByID(ctx context.Context, shopID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrderService) List(ctx context.Context, shopID uuid.UUID, params pagination.Params) (*orders.Page, error) {
	return &orders.Page{}, nil
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) GetConfig(ctx context.Context, shopID uuid.UUID) (*loyalty.ConfigDTO, error) {
	return &loyalty.ConfigDTO{}, nil
}

func (stubLoyaltyService) UpdateConfig(ctx context.Context, shopID uuid.UUID, curve loyalty.Curve) (*loyalty.ConfigDTO, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) Profile(ctx context.Context, shopID uuid.UUID, xp int) (*loyalty.Progress, error) {
	panic("unimplemented")
}

type stubAdminService struct {
	roles map[string]enums.AdminRole
}

func (s stubAdminService) Create(ctx context.Context, wallet string, role enums.AdminRole) (*admin.UserDTO, error) {
	panic("unimplemented")
}

func (s stubAdminService) GetByWallet(ctx context.Context, wallet string) (*admin.UserDTO, error) {
	role, ok := s.roles[wallet]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin user not found")
	}
	return &admin.UserDTO{ID: uuid.New(), Wallet: wallet, Role: role}, nil
}

func (s stubAdminService) List(ctx context.Context) ([]admin.UserDTO, error) {
	return []admin.UserDTO{}, nil
}

func (s stubAdminService) UpdateRole(ctx context.Context, wallet string, role enums.AdminRole) (*admin.UserDTO, error) {
	panic("unimplemented")
}

func (s stubAdminService) Delete(ctx context.Context, wallet string) error {
	panic("unimplemented")
}

type stubPackageService struct{}

func (stubPackageService) CreateJob(ctx context.Context, input packages.CreateJobInput) (*packages.JobDTO, error) {
	panic("unimplemented")
}

func (stubPackageService) GetJob(ctx context.Context, jobID uuid.UUID) (*packages.JobDTO, error) {
	return &packages.JobDTO{ID: jobID}, nil
}

func (stubPackageService) ListByShop(ctx context.Context, shopID uuid.UUID) ([]packages.JobDTO, error) {
	panic("unimplemented")
}

func (stubPackageService) Progress(ctx context.Context, jobID uuid.UUID) (*packages.ProgressUpdate, error) {
	return &packages.ProgressUpdate{Progress: 100, Status: enums.PackageJobStatusCompleted}, nil
}

func (stubPackageService) Start(ctx context.Context) {}

func (stubPackageService) Wait() {}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		DeviceToken: config.DeviceTokenConfig{
			Secret:            "secret",
			Issuer:            "shopkit-test",
			ExpirationMinutes: 60,
		},
		Packages: config.PackagesConfig{StreamTimeout: time.Second},
	}
}

func newTestRouter(admins map[string]enums.AdminRole) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		Services{
			Shops:     stubShopService{},
			Inventory: stubInventoryService{},
			Team:      stubTeamService{},
			Discounts: stubDiscountService{},
			Orders:    stubOrderService{},
			Loyalty:   stubLoyaltyService{},
			Admin:     stubAdminService{roles: admins},
			Packages:  stubPackageService{},
		},
	)
}

func TestHealthLiveNeedsNoAuth(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPublicResolveNeedsNoAuth(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/resolve?slug=corner-store", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public resolve got %d", resp.Code)
	}
}

func TestShopRoutesRejectMissingWallet(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without wallet got %d", resp.Code)
	}
}

func TestMerchantWalletListsShops(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/", nil)
	req.Header.Set("X-Wallet", "0xmerchant")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for merchant list got %d", resp.Code)
	}
}

func TestAdminGroupBlocksMerchants(t *testing.T) {
	router := newTestRouter(map[string]enums.AdminRole{
		"0xadmin": enums.AdminRolePlatformAdmin,
	})

	merchant := httptest.NewRequest(http.MethodGet, "/api/admin/v1/roles/", nil)
	merchant.Header.Set("X-Wallet", "0xmerchant")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant got %d", resp.Code)
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/admin/v1/roles/", nil)
	adminReq.Header.Set("X-Wallet", "0xadmin")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRoleManagementNeedsPlatformAdmin(t *testing.T) {
	router := newTestRouter(map[string]enums.AdminRole{
		"0xpartner": enums.AdminRolePartnerAdmin,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/roles/", nil)
	req.Header.Set("X-Wallet", "0xpartner")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for partner role got %d", resp.Code)
	}

	jobID := uuid.New()
	pkgReq := httptest.NewRequest(http.MethodGet, "/api/admin/v1/packages/"+jobID.String(), nil)
	pkgReq.Header.Set("X-Wallet", "0xpartner")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, pkgReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for partner package read got %d", resp.Code)
	}
}

func TestPosRoutesRequireDeviceToken(t *testing.T) {
	router := newTestRouter(nil)
	shopID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/pos/v1/shops/"+shopID.String()+"/quotes", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without device token got %d", resp.Code)
	}

	forged := httptest.NewRequest(http.MethodPost, "/api/pos/v1/shops/"+shopID.String()+"/quotes", nil)
	forged.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, forged)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token got %d", resp.Code)
	}
}

func TestInventoryApproveRequiresPlatformRole(t *testing.T) {
	router := newTestRouter(map[string]enums.AdminRole{
		"0xadmin": enums.AdminRolePlatformAdmin,
	})
	shopID := uuid.New()
	itemID := uuid.New()
	path := "/api/v1/shops/" + shopID.String() + "/inventory/" + itemID.String() + "/approve"

	merchant := httptest.NewRequest(http.MethodPost, path, nil)
	merchant.Header.Set("X-Wallet", "0xmerchant")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant approve got %d", resp.Code)
	}

	adminReq := httptest.NewRequest(http.MethodPost, path, nil)
	adminReq.Header.Set("X-Wallet", "0xadmin")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, adminReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin approve got %d", resp.Code)
	}
}
