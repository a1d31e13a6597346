package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/m4ssya/warehouse-backend/api/routes"
	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/internal/orders"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/internal/suppliers"
	"github.com/m4ssya/warehouse-backend/internal/users"
	"github.com/m4ssya/warehouse-backend/pkg/auth/session"
	"github.com/m4ssya/warehouse-backend/pkg/config"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/migrate"
	"github.com/m4ssya/warehouse-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	ledgerRepo := ledger.NewRepository(conn)
	productRepo := catalog.NewProductRepository(conn)
	categoryRepo := catalog.NewCategoryRepository(conn)
	salesRepo := sales.NewRepository(conn)
	lowStockRepo := lowstock.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	supplierRepo := suppliers.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	engine, err := stock.NewEngine(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock engine", err)
		os.Exit(1)
	}
	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	lowStockService, err := lowstock.NewService(lowStockRepo, categoryRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lowstock service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(productRepo, categoryRepo, dbClient, engine, salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	stockService, err := stock.NewService(dbClient, engine, lowStockService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	salesService, err := sales.NewService(salesRepo, productRepo, dbClient, engine, lowStockService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, productRepo, dbClient, engine, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	supplierService, err := suppliers.NewService(supplierRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create suppliers service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(userRepo, salesRepo, dbClient, sessionManager, redisClient, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Users:    userService,
			Catalog:  catalogService,
			Stock:    stockService,
			Ledger:   ledgerService,
			Sales:    salesService,
			Orders:   orderService,
			Supplier: supplierService,
			LowStock: lowStockService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
