// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds application runtime configuration.
type Config struct {
	Env      string
	LogLevel string

	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DatabaseURL  string
	DBMaxConns   int
	DBMinConns   int
	JWTSecret    string
	AccessTTL    time.Duration
	BcryptCost   int
	CookieSecure bool

	IdempotencyTTL     time.Duration
	AllowNegativeStock bool
	InvoicePrefix      string
	InvoicePadWidth    int
	LowStockRule       string

	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MetricsEnabled     bool

	WorkerInterval    time.Duration
	WorkerMetricsAddr string
	OutboxBatchSize   int
	OutboxRetention   time.Duration
	AdminEmail        string
	AdminPassword     string
	AdminName         string
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DBMaxConns:   getInt("DB_MAX_CONNS", 20),
		DBMinConns:   getInt("DB_MIN_CONNS", 2),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AccessTTL:    getDuration("ACCESS_TOKEN_TTL", 12*time.Hour),
		BcryptCost:   getInt("BCRYPT_COST", 10),
		CookieSecure: getBool("COOKIE_SECURE", false),

		IdempotencyTTL:     getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		AllowNegativeStock: getBool("ALLOW_NEGATIVE_STOCK", true),
		InvoicePrefix:      getEnv("INVOICE_PREFIX", "INV"),
		InvoicePadWidth:    getInt("INVOICE_PAD_WIDTH", 4),
		LowStockRule:       os.Getenv("LOW_STOCK_RULE"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 20),
		MetricsEnabled:     getBool("METRICS_ENABLED", true),

		WorkerInterval:    getDuration("WORKER_INTERVAL", 5*time.Second),
		WorkerMetricsAddr: os.Getenv("WORKER_METRICS_ADDR"),
		OutboxBatchSize:   getInt("OUTBOX_BATCH_SIZE", 100),
		OutboxRetention:   getDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminName:         getEnv("ADMIN_NAME", "Administrator"),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return cfg, errors.New("JWT_SECRET is required")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.InvoicePadWidth < 1 {
		return cfg, errors.New("INVOICE_PAD_WIDTH must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
