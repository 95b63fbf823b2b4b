package shops

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db"
	"github.com/calderwoods/shopkit-backend/pkg/db/models"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/types"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

type shopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	FindBySlug(ctx context.Context, slug string) (*models.Shop, error)
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
	FindByOwnerWallet(ctx context.Context, wallet string) ([]models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Actor identifies the caller for authorization checks.
type Actor struct {
	Wallet  string
	IsAdmin bool
}

// CreateShopInput holds creation-time data for a new shop.
type CreateShopInput struct {
	Name         string
	Slug         string
	CustomDomain *string
	Bio          *string
	Theme        *types.Theme
}

// UpdateShopInput captures the mutable shop fields.
type UpdateShopInput struct {
	Name         *string
	Slug         *string
	CustomDomain *string
	Bio          *string
	Arrangement  *[]string
	Theme        *types.Theme
}

// Service exposes tenant operations.
type Service interface {
	Create(ctx context.Context, ownerWallet string, input CreateShopInput) (*ShopDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ShopDTO, error)
	Resolve(ctx context.Context, slug, domain string) (*ShopDTO, error)
	ListByOwner(ctx context.Context, wallet string) ([]ShopDTO, error)
	Update(ctx context.Context, actor Actor, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error)
	Delete(ctx context.Context, actor Actor, shopID uuid.UUID) error
	Branding(ctx context.Context, shopID uuid.UUID) (*BrandingDTO, error)
	Authorize(ctx context.Context, actor Actor, shopID uuid.UUID) (*models.Shop, error)
}

type service struct {
	repo     shopRepository
	branding config.BrandingConfig
}

// NewService builds a shop service with the provided repository.
func NewService(repo shopRepository, branding config.BrandingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	return &service{repo: repo, branding: branding}, nil
}

func (s *service) Create(ctx context.Context, ownerWallet string, input CreateShopInput) (*ShopDTO, error) {
	wallet := strings.TrimSpace(ownerWallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner wallet is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
	}

	shop := &models.Shop{
		OwnerWallet: wallet,
		Name:        name,
		Slug:        slug,
		Bio:         cloneStringPtr(input.Bio),
		Theme:       defaultTheme(),
	}
	if input.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*input.CustomDomain))
		if domain != "" {
			shop.CustomDomain = &domain
		}
	}
	if input.Theme != nil {
		shop.Theme = mergeTheme(shop.Theme, *input.Theme)
	}

	if err := s.repo.Create(ctx, shop); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug, domain or wallet already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	return FromModel(shop), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ShopDTO, error) {
	shop, err := s.loadShop(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(shop), nil
}

// Resolve finds a shop by slug or custom domain. Exactly one selector must be
// provided.
func (s *service) Resolve(ctx context.Context, slug, domain string) (*ShopDTO, error) {
	slug = strings.TrimSpace(slug)
	domain = strings.TrimSpace(domain)
	if (slug == "") == (domain == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide either slug or domain")
	}

	var (
		shop *models.Shop
		err  error
	)
	if slug != "" {
		shop, err = s.repo.FindBySlug(ctx, slug)
	} else {
		shop, err = s.repo.FindByDomain(ctx, domain)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve shop")
	}
	return FromModel(shop), nil
}

func (s *service) ListByOwner(ctx context.Context, wallet string) ([]ShopDTO, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is required")
	}
	rows, err := s.repo.FindByOwnerWallet(ctx, wallet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}
	out := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, actor Actor, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error) {
	shop, err := s.Authorize(ctx, actor, shopID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name cannot be empty")
		}
		shop.Name = name
	}
	if input.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*input.Slug))
		if !slugPattern.MatchString(slug) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
		}
		shop.Slug = slug
	}
	if input.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*input.CustomDomain))
		if domain == "" {
			shop.CustomDomain = nil
		} else {
			shop.CustomDomain = &domain
		}
	}
	if input.Bio != nil {
		shop.Bio = cloneStringPtr(input.Bio)
	}
	if input.Arrangement != nil {
		shop.Arrangement = cloneArrangement(*input.Arrangement)
	}
	if input.Theme != nil {
		shop.Theme = mergeTheme(shop.Theme, *input.Theme)
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug or domain already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop")
	}
	return FromModel(shop), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, shopID uuid.UUID) error {
	if _, err := s.Authorize(ctx, actor, shopID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, shopID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shop")
	}
	return nil
}

// Branding resolves the public branding payload. The favicon cascades from
// the explicit theme favicon to the shop logo to the platform default.
func (s *service) Branding(ctx context.Context, shopID uuid.UUID) (*BrandingDTO, error) {
	shop, err := s.loadShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	logo := derefOr(shop.Theme.LogoURL, s.branding.DefaultLogoURL)
	favicon := derefOr(shop.Theme.FaviconURL, "")
	if favicon == "" {
		favicon = derefOr(shop.Theme.LogoURL, s.branding.DefaultFaviconURL)
	}
	layout := shop.Theme.LayoutMode
	if layout == "" {
		layout = enums.LayoutModeGrid
	}

	return &BrandingDTO{
		ShopID:       shop.ID,
		Name:         shop.Name,
		PrimaryColor: shop.Theme.PrimaryColor,
		LogoURL:      logo,
		FaviconURL:   favicon,
		LayoutMode:   layout.String(),
	}, nil
}

// Authorize loads the shop and verifies the actor owns it or is a platform
// admin.
func (s *service) Authorize(ctx context.Context, actor Actor, shopID uuid.UUID) (*models.Shop, error) {
	shop, err := s.loadShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin {
		return shop, nil
	}
	if !strings.EqualFold(actor.Wallet, shop.OwnerWallet) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "wallet does not own this shop")
	}
	return shop, nil
}

func (s *service) loadShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}

func defaultTheme() types.Theme {
	return types.Theme{
		PrimaryColor:   "#1a1a2e",
		SecondaryColor: "#e2e2e2",
		AccentColor:    "#0f9d58",
		LayoutMode:     enums.LayoutModeGrid,
	}
}

// mergeTheme overlays the non-empty fields of patch onto base.
func mergeTheme(base, patch types.Theme) types.Theme {
	if patch.PrimaryColor != "" {
		base.PrimaryColor = patch.PrimaryColor
	}
	if patch.SecondaryColor != "" {
		base.SecondaryColor = patch.SecondaryColor
	}
	if patch.AccentColor != "" {
		base.AccentColor = patch.AccentColor
	}
	if patch.LogoURL != nil {
		base.LogoURL = cloneStringPtr(patch.LogoURL)
	}
	if patch.FaviconURL != nil {
		base.FaviconURL = cloneStringPtr(patch.FaviconURL)
	}
	if patch.LayoutMode != "" {
		if !patch.LayoutMode.IsValid() {
			base.LayoutMode = enums.LayoutModeGrid
		} else {
			base.LayoutMode = patch.LayoutMode
		}
	}
	return base
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}

func cloneArrangement(value []string) pq.StringArray {
	if value == nil {
		return nil
	}
	res := make(pq.StringArray, len(value))
	copy(res, value)
	return res
}
