package shops

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/types"
)

type stubShopRepo struct {
	shop    *models.Shop
	shops   []models.Shop
	err     error
	created *models.Shop
	updated *models.Shop
	deleted []uuid.UUID
}

func (s *stubShopRepo) Create(_ context.Context, shop *models.Shop) error {
	if s.err != nil {
		return s.err
	}
	shop.ID = uuid.New()
	s.created = shop
	return nil
}

func (s *stubShopRepo) FindByID(context.Context, uuid.UUID) (*models.Shop, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.shop == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shop, nil
}

func (s *stubShopRepo) FindBySlug(context.Context, string) (*models.Shop, error) {
	return s.FindByID(context.Background(), uuid.Nil)
}

func (s *stubShopRepo) FindByDomain(context.Context, string) (*models.Shop, error) {
	return s.FindByID(context.Background(), uuid.Nil)
}

func (s *stubShopRepo) FindByOwnerWallet(context.Context, string) ([]models.Shop, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.shops, nil
}

func (s *stubShopRepo) Update(_ context.Context, shop *models.Shop) error {
	if s.err != nil {
		return s.err
	}
	s.updated = shop
	return nil
}

func (s *stubShopRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func brandingCfg() config.BrandingConfig {
	return config.BrandingConfig{
		DefaultFaviconURL: "https://cdn.example.com/favicon.ico",
		DefaultLogoURL:    "https://cdn.example.com/logo.png",
	}
}

func baseShop() *models.Shop {
	return &models.Shop{
		ID:          uuid.New(),
		OwnerWallet: "0xabc",
		Name:        "Corner Books",
		Slug:        "corner-books",
		Theme: types.Theme{
			PrimaryColor: "#112233",
			LayoutMode:   enums.LayoutModeGrid,
		},
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil, brandingCfg()); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceCreateValidatesSlug(t *testing.T) {
	svc, err := NewService(&stubShopRepo{}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Create(context.Background(), "0xabc", CreateShopInput{Name: "Shop", Slug: "Bad Slug!"})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestServiceCreateSuppliesDefaultTheme(t *testing.T) {
	repo := &stubShopRepo{}
	svc, err := NewService(repo, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), "0xabc", CreateShopInput{Name: "Corner Books", Slug: "corner-books"})
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	if dto.Theme.LayoutMode != enums.LayoutModeGrid {
		t.Fatalf("expected default layout, got %s", dto.Theme.LayoutMode)
	}
	if repo.created == nil || repo.created.Slug != "corner-books" {
		t.Fatalf("expected persisted slug, got %+v", repo.created)
	}
}

func TestServiceResolveRequiresOneSelector(t *testing.T) {
	svc, err := NewService(&stubShopRepo{shop: baseShop()}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, gotErr := svc.Resolve(context.Background(), "", ""); gotErr == nil {
		t.Fatal("expected error with no selector")
	}
	if _, gotErr := svc.Resolve(context.Background(), "slug", "domain"); gotErr == nil {
		t.Fatal("expected error with both selectors")
	}
}

func TestServiceResolveNotFound(t *testing.T) {
	svc, err := NewService(&stubShopRepo{}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Resolve(context.Background(), "missing", "")
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", gotErr)
	}
}

func TestServiceUpdateRejectsForeignWallet(t *testing.T) {
	shop := baseShop()
	svc, err := NewService(&stubShopRepo{shop: shop}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "Renamed"
	_, gotErr := svc.Update(context.Background(), Actor{Wallet: "0xother"}, shop.ID, UpdateShopInput{Name: &name})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", gotErr)
	}
}

func TestServiceUpdateAllowsAdminOverride(t *testing.T) {
	shop := baseShop()
	repo := &stubShopRepo{shop: shop}
	svc, err := NewService(repo, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	name := "Renamed"
	dto, err := svc.Update(context.Background(), Actor{Wallet: "0xadmin", IsAdmin: true}, shop.ID, UpdateShopInput{Name: &name})
	if err != nil {
		t.Fatalf("update shop: %v", err)
	}
	if dto.Name != "Renamed" {
		t.Fatalf("expected renamed shop, got %s", dto.Name)
	}
	if repo.updated == nil {
		t.Fatal("expected repo update call")
	}
}

func TestServiceUpdateMergesTheme(t *testing.T) {
	shop := baseShop()
	svc, err := NewService(&stubShopRepo{shop: shop}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	logo := "https://cdn.example.com/new-logo.png"
	dto, err := svc.Update(context.Background(), Actor{Wallet: shop.OwnerWallet}, shop.ID, UpdateShopInput{
		Theme: &types.Theme{LogoURL: &logo},
	})
	if err != nil {
		t.Fatalf("update shop: %v", err)
	}
	if dto.Theme.LogoURL == nil || *dto.Theme.LogoURL != logo {
		t.Fatalf("expected merged logo, got %v", dto.Theme.LogoURL)
	}
	if dto.Theme.PrimaryColor != "#112233" {
		t.Fatalf("expected untouched primary color, got %s", dto.Theme.PrimaryColor)
	}
}

func TestServiceBrandingCascade(t *testing.T) {
	shop := baseShop()
	svc, err := NewService(&stubShopRepo{shop: shop}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// No favicon, no logo: platform defaults.
	branding, err := svc.Branding(context.Background(), shop.ID)
	if err != nil {
		t.Fatalf("branding: %v", err)
	}
	if branding.FaviconURL != "https://cdn.example.com/favicon.ico" {
		t.Fatalf("expected platform favicon, got %s", branding.FaviconURL)
	}
	if branding.LogoURL != "https://cdn.example.com/logo.png" {
		t.Fatalf("expected platform logo, got %s", branding.LogoURL)
	}

	// Logo only: favicon falls back to the logo.
	logo := "https://cdn.example.com/shop-logo.png"
	shop.Theme.LogoURL = &logo
	branding, err = svc.Branding(context.Background(), shop.ID)
	if err != nil {
		t.Fatalf("branding: %v", err)
	}
	if branding.FaviconURL != logo {
		t.Fatalf("expected logo favicon fallback, got %s", branding.FaviconURL)
	}

	// Explicit favicon wins.
	favicon := "https://cdn.example.com/shop-favicon.ico"
	shop.Theme.FaviconURL = &favicon
	branding, err = svc.Branding(context.Background(), shop.ID)
	if err != nil {
		t.Fatalf("branding: %v", err)
	}
	if branding.FaviconURL != favicon {
		t.Fatalf("expected explicit favicon, got %s", branding.FaviconURL)
	}
}

func TestServiceBrandingDependencyError(t *testing.T) {
	svc, err := NewService(&stubShopRepo{err: errors.New("boom")}, brandingCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Branding(context.Background(), uuid.New())
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", gotErr)
	}
}
