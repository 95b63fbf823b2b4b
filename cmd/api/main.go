package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/calderwoods/shopkit-backend/api/routes"
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
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/migrate"
	"github.com/calderwoods/shopkit-backend/pkg/outbox"
	"github.com/calderwoods/shopkit-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	shopsSvc, err := shops.NewService(shops.NewRepository(dbClient.DB()), cfg.Branding)
	if err != nil {
		logg.Error(context.Background(), "failed to create shops service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	inventorySvc, err := inventory.NewService(inventoryRepo, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	teamRepo := team.NewRepository(dbClient.DB())
	teamSvc, err := team.NewService(teamRepo, redisClient, dbClient, outboxSvc, cfg.PIN, cfg.PINRateLimit, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create team service", err)
		os.Exit(1)
	}

	discountsSvc, err := discounts.NewService(discounts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create discounts service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), inventoryRepo, discountsSvc, teamRepo, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	loyaltySvc, err := loyalty.NewService(loyalty.NewRepository(dbClient.DB()), cfg.Loyalty)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	adminSvc, err := admin.NewService(admin.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	packagesSvc, err := packages.NewService(packages.NewRepository(dbClient.DB()), redisClient, nil, cfg.Packages, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create packages service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	packagesSvc.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Shops:     shopsSvc,
			Inventory: inventorySvc,
			Team:      teamSvc,
			Discounts: discountsSvc,
			Orders:    ordersSvc,
			Loyalty:   loyaltySvc,
			Admin:     adminSvc,
			Packages:  packagesSvc,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "server shutdown failed", err)
	}

	// Let in-flight package builds persist their terminal status.
	packagesSvc.Wait()
	logg.Info(ctx, "api server shutting down gracefully")
}
