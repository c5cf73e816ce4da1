package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/peacetifal/peacetifal-backend/api/routes"
	"github.com/peacetifal/peacetifal-backend/internal/products"
	"github.com/peacetifal/peacetifal-backend/internal/purchases"
	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	"github.com/peacetifal/peacetifal-backend/internal/stock"
	"github.com/peacetifal/peacetifal-backend/internal/users"
	"github.com/peacetifal/peacetifal-backend/internal/vouchers"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/db"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/migrate"
	"github.com/peacetifal/peacetifal-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	vouchersService, err := vouchers.NewService(vouchers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	purchasesService, err := purchases.NewService(
		purchases.NewRepository(dbClient.DB()),
		dbClient,
		productsRepo,
		stock.NewLedger(),
		vouchersService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	engine, err := reconcile.NewEngine(dbClient.DB(), logg, cfg.Reconcile.BatchSize)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile engine", err)
		os.Exit(1)
	}

	propagator, err := reconcile.NewPropagator(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create address propagator", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Users:      usersService,
			Products:   productsService,
			Vouchers:   vouchersService,
			Purchases:  purchasesService,
			Engine:     engine,
			Propagator: propagator,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
