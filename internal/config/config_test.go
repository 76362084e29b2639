package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":        "postgres://localhost/subshop",
		"REDIS_URL":           "redis://localhost:6379",
		"JWT_SECRET":          "test-secret",
		"PORT":                "",
		"ACCESS_TOKEN_TTL":    "",
		"CATALOG_CACHE_TTL":   "",
		"CHECKOUT_RATE_LIMIT": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, "30-M", cfg.CheckoutRateLimit)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "test-secret",
	})
	require.Error(t, err)
}

func TestCORSOriginsSplit(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/subshop",
		"REDIS_URL":            "redis://localhost:6379",
		"JWT_SECRET":           "test-secret",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
