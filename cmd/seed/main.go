// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shopledger/internal/config"
	"shopledger/internal/core/apperror"
	appctx "shopledger/internal/core/context"
	corenumerator "shopledger/internal/core/numerator"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/infrastructure/numerator"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/auth_repo"
	"shopledger/internal/infrastructure/storage/postgres/catalog_repo"
	"shopledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	authConfig := auth.DefaultServiceConfig()
	authConfig.BcryptCost = cfg.BcryptCost
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		txManager,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)),
		authConfig,
	)

	if err := seedAdminUser(ctx, authService, cfg, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if last := os.Getenv("INVOICE_CONTINUE_FROM"); last != "" {
		if err := continueInvoices(ctx, numerator.New(pool), cfg, last, log); err != nil {
			log.Fatalw("failed to move invoice counter", "error", err)
		}
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		auditService, err := postgres.NewAuditService(txManager)
		if err != nil {
			log.Fatalw("failed to initialize audit", "error", err)
		}
		productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager, auditService, nil)
		if err := seedDemoCatalog(ctx, productService, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, svc *auth.Service, cfg config.Config, log *logger.Logger) error {
	email := cfg.AdminEmail
	if email == "" {
		email = "admin@shopledger.local"
	}
	password := cfg.AdminPassword
	if password == "" {
		password = "Admin123!"
		log.Warnw("ADMIN_PASSWORD not set, using the default password", "email", email)
	}

	user, err := svc.CreateUser(ctx, auth.SignupRequest{
		Name:     cfg.AdminName,
		Email:    email,
		Password: password,
	}, appctx.RoleAdmin)
	if apperror.HasCode(err, apperror.CodeDuplicate) {
		log.Infow("admin user already exists", "email", email)
		return nil
	}
	if err != nil {
		return err
	}

	log.Infow("admin user created", "user_id", user.ID, "email", user.Email)
	return nil
}

type demoProduct struct {
	name     string
	category product.Category
	price    string
	stock    int
	supplier string
}

var demoCatalog = []demoProduct{
	{"Toyota TOY43 blade", product.CategoryBlade, "4.50", 120, "Silca"},
	{"Honda HON66 blade", product.CategoryBlade, "4.50", 80, "Silca"},
	{"Xhorse XKB501 remote", product.CategoryRemoteXhorse, "18.00", 25, "Xhorse"},
	{"KeyDIY B01 remote", product.CategoryRemoteKeyDiy, "15.00", 30, "KeyDIY"},
	{"CR2032 cell", product.CategoryBattery, "1.20", 200, "Maxell"},
	{"CR2025 cell", product.CategoryBattery, "1.20", 8, "Maxell"},
	{"ID46 transponder", product.CategoryChip, "6.00", 40, "Philips"},
	{"Flip key casing 3B", product.CategoryCasing, "7.50", 15, "Generic"},
	{"Leather key jacket", product.CategoryJacket, "9.00", 12, "Generic"},
	{"Key tag ring", product.CategoryKeyholder, "0.80", 300, "Generic"},
}

func seedDemoCatalog(ctx context.Context, svc *product.Service, log *logger.Logger) error {
	existing, err := svc.List(ctx, product.ListFilter{})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 {
		log.Infow("catalog is not empty, skipping demo products", "count", len(existing))
		return nil
	}

	for _, d := range demoCatalog {
		p := product.NewProduct(d.name, d.category, types.MustMoney(d.price), d.stock, product.DefaultMinStock, d.supplier)
		if err := svc.Create(ctx, p); err != nil {
			return fmt.Errorf("create %q: %w", d.name, err)
		}
	}
	log.Infow("demo catalog created", "count", len(demoCatalog))
	return nil
}

// continueInvoices moves the invoice counter past the last number issued by a
// previous system so new sales do not collide with imported ones.
func continueInvoices(ctx context.Context, gen *numerator.Service, cfg config.Config, last string, log *logger.Logger) error {
	n := numerator.ParseNumber(last)
	if n < 0 {
		return fmt.Errorf("cannot parse invoice number %q", last)
	}
	if err := gen.SetNextNumber(ctx, corenumerator.InvoiceConfig(cfg.InvoicePrefix, cfg.InvoicePadWidth), time.Now(), n+1); err != nil {
		return err
	}
	log.Infow("invoice counter moved", "last", last, "next", n+1)
	return nil
}
