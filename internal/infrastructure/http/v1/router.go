// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/domain/analytics"
	"shopledger/internal/domain/auth"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/expense"
	"shopledger/internal/domain/reports"
	"shopledger/internal/domain/sales"
	"shopledger/internal/infrastructure/http/v1/handlers"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/metrics"
	"shopledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB answers readiness probes
	DB handlers.Pinger

	AuthService      *auth.Service
	ProductService   *product.Service
	SaleService      *sales.Service
	ExpenseService   *expense.Service
	AnalyticsService *analytics.Service
	ReportService    *reports.Service

	// History serves the audit trail; nil hides /history
	History handlers.HistorySource

	// Idempotency backs X-Idempotency-Key on sale writes; nil disables it
	Idempotency middleware.IdempotencyStore

	// Metrics is optional; when set /metrics is exposed
	Metrics *metrics.Metrics

	CORSAllowedOrigins []string

	// AuthRateLimit is the per-IP request budget per minute on /auth
	AuthRateLimit int

	SecureCookie bool
}

// NewRouter creates and configures the HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	registerAuthRoutes(v1, base, cfg)

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.AuthService))

	registerProductRoutes(protected, base, cfg)
	registerSaleRoutes(protected, base, cfg)
	registerExpenseRoutes(protected, base, cfg)
	registerAnalyticsRoutes(protected, base, cfg)
	registerReportRoutes(protected, base, cfg)
	if cfg.History != nil {
		h := handlers.NewHistoryHandler(base, cfg.History)
		protected.GET("/history/:entity/:id", middleware.RequireRole(appctx.RoleAdmin), h.Get)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderIdempotencyKey},
		ExposedHeaders:   []string{middleware.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})(router)
}

// wrapHTTP adapts net/http middleware to gin. The gin chain continues only
// if the wrapped middleware calls its next handler.
func wrapHTTP(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, cfg.SecureCookie)

	group := rg.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		group.Use(wrapHTTP(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute)))
	}
	group.POST("/signup", authHandler.Signup)
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)
	group.GET("/me", middleware.Auth(cfg.AuthService), authHandler.Me)
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.ProductService)
	admin := middleware.RequireRole(appctx.RoleAdmin)

	group := rg.Group("/products")
	group.GET("", h.List)
	group.GET("/low-stock", h.LowStock)
	group.GET("/:id", h.Get)
	group.POST("", admin, h.Create)
	group.PUT("/:id", admin, h.Update)
	group.DELETE("/:id", admin, h.Delete)
}

func registerSaleRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	var observer handlers.SaleObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	h := handlers.NewSaleHandler(base, cfg.SaleService, observer)

	group := rg.Group("/sales")
	group.GET("", h.List)
	group.GET("/open", h.ListOpen)
	group.GET("/outstanding", h.Outstanding)
	group.GET("/:id", h.Get)

	writes := group.Group("")
	if cfg.Idempotency != nil {
		writes.Use(middleware.Idempotency(cfg.Idempotency))
	}
	writes.POST("", h.Create)
	writes.POST("/checkout", h.Checkout)
	writes.POST("/:id/consolidate", h.Consolidate)
	writes.POST("/:id/payment", h.Payment)
	writes.POST("/:id/debt", h.Debt)
}

func registerExpenseRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewExpenseHandler(base, cfg.ExpenseService)
	admin := middleware.RequireRole(appctx.RoleAdmin)

	group := rg.Group("/expenses")
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", admin, h.Create)
	group.PUT("/:id", admin, h.Update)
	group.DELETE("/:id", admin, h.Delete)
}

func registerAnalyticsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAnalyticsHandler(base, cfg.AnalyticsService)

	rg.GET("/analytics", middleware.RequireRole(appctx.RoleAdmin), h.Report)
	rg.GET("/dashboard", h.Dashboard)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportHandler(base, cfg.ReportService)

	group := rg.Group("/reports", middleware.RequireRole(appctx.RoleAdmin))
	group.GET("/sales.xlsx", h.Sales)
	group.GET("/expenses.xlsx", h.Expenses)
}
