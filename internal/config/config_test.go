package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.True(t, cfg.AllowNegativeStock)
	assert.Equal(t, "INV", cfg.InvoicePrefix)
	assert.Equal(t, 4, cfg.InvoicePadWidth)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("INVOICE_PREFIX", "SL")
	t.Setenv("INVOICE_PAD_WIDTH", "6")
	t.Setenv("WORKER_INTERVAL", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.AllowNegativeStock)
	assert.Equal(t, "SL", cfg.InvoicePrefix)
	assert.Equal(t, 6, cfg.InvoicePadWidth)
	assert.Equal(t, 30*time.Second, cfg.WorkerInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
}

func TestFromEnv_Required(t *testing.T) {
	t.Run("database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := FromEnv()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})

	t.Run("jwt secret outside development", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/shop")
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := FromEnv()
		assert.EqualError(t, err, "JWT_SECRET is required")
	})

	t.Run("pad width", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/shop")
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("INVOICE_PAD_WIDTH", "0")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
