package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calderwoods/shopkit-backend/api/controllers"
	"github.com/calderwoods/shopkit-backend/api/middleware"
	"github.com/calderwoods/shopkit-backend/internal/admin"
	"github.com/calderwoods/shopkit-backend/internal/discounts"
	"github.com/calderwoods/shopkit-backend/internal/inventory"
	"github.com/calderwoods/shopkit-backend/internal/loyalty"
	"github.com/calderwoods/shopkit-backend/internal/orders"
	"github.com/calderwoods/shopkit-backend/internal/packages"
	"github.com/calderwoods/shopkit-backend/internal/shops"
	"github.com/calderwoods/shopkit-backend/internal/team"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db"
	"github.com/calderwoods/shopkit-backend/pkg/enums"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Shops     shops.Service
	Inventory inventory.Service
	Team      team.Service
	Discounts discounts.Service
	Orders    orders.Service
	Loyalty   loyalty.Service
	Admin     admin.Service
	Packages  packages.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Public storefront lookups carry no credentials.
	r.Route("/api/v1/shops", func(r chi.Router) {
		r.Get("/resolve", controllers.ShopResolve(svcs.Shops, logg))
		r.Get("/{shopID}/branding", controllers.ShopBranding(svcs.Shops, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.WalletAuth(svcs.Admin, logg))

			r.Post("/", controllers.ShopCreate(svcs.Shops, logg))
			r.Get("/", controllers.ShopList(svcs.Shops, logg))

			r.Route("/{shopID}", func(r chi.Router) {
				r.Get("/", controllers.ShopGet(svcs.Shops, logg))
				r.Put("/", controllers.ShopUpdate(svcs.Shops, logg))
				r.Delete("/", controllers.ShopDelete(svcs.Shops, logg))

				r.Route("/inventory", func(r chi.Router) {
					r.Post("/", controllers.InventoryCreate(svcs.Inventory, svcs.Shops, logg))
					r.Get("/", controllers.InventoryList(svcs.Inventory, svcs.Shops, logg))
					r.Route("/{itemID}", func(r chi.Router) {
						r.Get("/", controllers.InventoryGet(svcs.Inventory, svcs.Shops, logg))
						r.Patch("/", controllers.InventoryUpdate(svcs.Inventory, svcs.Shops, logg))
						r.Delete("/", controllers.InventoryDelete(svcs.Inventory, svcs.Shops, logg))
						r.Post("/revision", controllers.InventorySubmitRevision(svcs.Inventory, svcs.Shops, logg))
						r.With(middleware.RequireAdmin(logg)).Post("/approve", controllers.InventoryApprove(svcs.Inventory, logg))
						r.With(middleware.RequireAdmin(logg)).Post("/reject", controllers.InventoryReject(svcs.Inventory, logg))
					})
				})

				r.Route("/team", func(r chi.Router) {
					r.Post("/", controllers.TeamCreateMember(svcs.Team, svcs.Shops, logg))
					r.Get("/", controllers.TeamListMembers(svcs.Team, svcs.Shops, logg))
					r.Route("/{memberID}", func(r chi.Router) {
						r.Get("/", controllers.TeamGetMember(svcs.Team, svcs.Shops, logg))
						r.Patch("/", controllers.TeamUpdateMember(svcs.Team, svcs.Shops, logg))
						r.Delete("/", controllers.TeamDeleteMember(svcs.Team, svcs.Shops, logg))
						r.Post("/verify-pin", controllers.TeamVerifyPIN(svcs.Team, svcs.Shops, logg))
						r.Post("/sessions", controllers.TeamClockIn(svcs.Team, svcs.Shops, logg))
						r.Get("/sessions", controllers.TeamListSessions(svcs.Team, svcs.Shops, logg))
					})
				})

				r.Route("/sessions/{sessionID}", func(r chi.Router) {
					r.Post("/close", controllers.TeamCloseSession(svcs.Team, svcs.Shops, logg))
					r.Post("/tips-paid", controllers.TeamMarkTipsPaid(svcs.Team, svcs.Shops, logg))
				})

				r.Route("/discounts", func(r chi.Router) {
					r.Post("/", controllers.DiscountCreate(svcs.Discounts, svcs.Shops, logg))
					r.Get("/", controllers.DiscountList(svcs.Discounts, svcs.Shops, logg))
					r.Route("/{discountID}", func(r chi.Router) {
						r.Get("/", controllers.DiscountGet(svcs.Discounts, svcs.Shops, logg))
						r.Put("/", controllers.DiscountUpdate(svcs.Discounts, svcs.Shops, logg))
						r.Delete("/", controllers.DiscountDelete(svcs.Discounts, svcs.Shops, logg))
					})
				})

				r.Post("/quotes", controllers.OrderQuote(svcs.Orders, svcs.Shops, logg))
				r.Route("/orders", func(r chi.Router) {
					r.Post("/", controllers.OrderCheckout(svcs.Orders, svcs.Shops, logg))
					r.Get("/", controllers.OrderList(svcs.Orders, svcs.Shops, logg))
					r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, svcs.Shops, logg))
				})

				r.Route("/loyalty", func(r chi.Router) {
					r.Get("/config", controllers.LoyaltyGetConfig(svcs.Loyalty, svcs.Shops, logg))
					r.Put("/config", controllers.LoyaltyUpdateConfig(svcs.Loyalty, svcs.Shops, logg))
					r.Get("/profile", controllers.LoyaltyProfile(svcs.Loyalty, svcs.Shops, logg))
				})
			})
		})
	})

	r.Route("/api/v1/devices", func(r chi.Router) {
		r.Use(middleware.WalletAuth(svcs.Admin, logg))
		r.Post("/pair", controllers.DevicePair(svcs.Shops, redisClient, cfg.DeviceToken, logg))
	})

	// Paired POS devices authenticate with the bearer token minted at pairing
	// and are pinned to the shop in their claims.
	r.Route("/api/pos/v1/shops/{shopID}", func(r chi.Router) {
		r.Use(middleware.DeviceAuth(cfg.DeviceToken, redisClient, logg))
		r.Use(middleware.DeviceShopMatch(logg))

		r.Get("/inventory", controllers.InventoryList(svcs.Inventory, svcs.Shops, logg))
		r.Post("/team/{memberID}/verify-pin", controllers.TeamVerifyPIN(svcs.Team, svcs.Shops, logg))
		r.Post("/team/{memberID}/sessions", controllers.TeamClockIn(svcs.Team, svcs.Shops, logg))
		r.Post("/sessions/{sessionID}/close", controllers.TeamCloseSession(svcs.Team, svcs.Shops, logg))
		r.Post("/sessions/{sessionID}/tips-paid", controllers.TeamMarkTipsPaid(svcs.Team, svcs.Shops, logg))
		r.Post("/quotes", controllers.OrderQuote(svcs.Orders, svcs.Shops, logg))
		r.Post("/orders", controllers.OrderCheckout(svcs.Orders, svcs.Shops, logg))
		r.Get("/orders", controllers.OrderList(svcs.Orders, svcs.Shops, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.WalletAuth(svcs.Admin, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/roles", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg, enums.AdminRolePlatformSuperAdmin, enums.AdminRolePlatformAdmin))
			r.Post("/", controllers.AdminRoleCreate(svcs.Admin, logg))
			r.Get("/", controllers.AdminRoleList(svcs.Admin, logg))
			r.Put("/{wallet}", controllers.AdminRoleUpdate(svcs.Admin, logg))
			r.Delete("/{wallet}", controllers.AdminRoleDelete(svcs.Admin, logg))
		})

		r.Route("/packages", func(r chi.Router) {
			r.Post("/", controllers.PackageCreate(svcs.Packages, logg))
			r.Get("/{jobID}", controllers.PackageGet(svcs.Packages, logg))
			r.Get("/{jobID}/events", controllers.PackageEvents(svcs.Packages, cfg.Packages, logg))
		})
	})

	return r
}
