// Package main is the entry point for the shopledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopledger/internal/config"
	corenumerator "shopledger/internal/core/numerator"
	"shopledger/internal/domain/analytics"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/reports"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/export"
	v1 "shopledger/internal/infrastructure/http/v1"
	"shopledger/internal/infrastructure/metrics"
	"shopledger/internal/infrastructure/numerator"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/auth_repo"
	"shopledger/internal/infrastructure/storage/postgres/catalog_repo"
	"shopledger/internal/infrastructure/storage/postgres/document_repo"
	"shopledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting shopledger server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit", "error", err)
	}
	invoiceNumbers := numerator.NewWithQuerierFunc(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	var alertRule product.AlertRule = product.MinStockRule{}
	if cfg.LowStockRule != "" {
		rule, err := product.NewCELAlertRule(cfg.LowStockRule)
		if err != nil {
			log.Fatalw("invalid LOW_STOCK_RULE", "error", err)
		}
		alertRule = rule
		log.Infow("custom low-stock rule enabled", "rule", cfg.LowStockRule)
	}

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	expenseRepo := catalog_repo.NewExpenseRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Services ---
	authConfig := auth.DefaultServiceConfig()
	authConfig.BcryptCost = cfg.BcryptCost
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.AccessTTL
	authService := auth.NewService(userRepo, txManager, auth.NewJWTService(jwtConfig), authConfig)

	productService := product.NewService(productRepo, txManager, auditService, alertRule)
	expenseService := expense.NewService(expenseRepo, txManager, auditService)

	salesConfig := sales.DefaultConfig()
	salesConfig.AllowNegativeStock = cfg.AllowNegativeStock
	salesConfig.Invoice = corenumerator.InvoiceConfig(cfg.InvoicePrefix, cfg.InvoicePadWidth)
	saleService := sales.NewService(sales.Deps{
		Repo:      saleRepo,
		Inventory: productRepo,
		Numerator: invoiceNumbers,
		TxManager: txManager,
		Journal:   document_repo.NewSaleJournal(auditService, postgres.NewOutboxPublisher(txManager)),
		AlertRule: alertRule,
	}, salesConfig)

	analyticsService := analytics.NewService(saleRepo, productRepo, expenseRepo, alertRule)
	reportService := reports.NewService(saleRepo, expenseRepo, export.XLSX{})

	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New()
		appMetrics.RegisterDBPool(pool.Stats)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:             log,
		DB:                 pool,
		AuthService:        authService,
		ProductService:     productService,
		SaleService:        saleService,
		ExpenseService:     expenseService,
		AnalyticsService:   analyticsService,
		ReportService:      reportService,
		History:            auditService,
		Idempotency:        postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		Metrics:            appMetrics,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.RateLimitPerMinute,
		SecureCookie:       cfg.CookieSecure,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
