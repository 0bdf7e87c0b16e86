package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":            "redis://localhost:6379/0",
		"SHOPIFY_SHOP_NAME":    "demo.myshopify.com",
		"SHOPIFY_ACCESS_TOKEN": "shpat_test",
	}
}

func TestLoadDefaults(t *testing.T) {
	env := baseEnv()
	for _, key := range []string{"PORT", "DATABASE_URL", "RATE_LIMIT", "BODY_LIMIT_BYTES", "WHOLESALE_TAG", "LIFETIME_SPEND_TTL", "SHOPIFY_API_VERSION", "RETRY_MAX_ATTEMPTS"} {
		env[key] = ""
	}
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTPAddr())
	require.Equal(t, "120-M", cfg.RateLimit)
	require.Equal(t, int64(10<<20), cfg.BodyLimitBytes)
	require.Equal(t, "wholesale", cfg.WholesaleTag)
	require.Equal(t, 15*time.Minute, cfg.LifetimeSpendTTL)
	require.Equal(t, "2024-01", cfg.Shopify.APIVersion)
	require.Equal(t, 3, cfg.Outbound.RetryMaxAttempts)
	require.False(t, cfg.LedgerEnabled())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = ":9090"
	env["DATABASE_URL"] = "postgres://u:p@localhost/wholesale"
	env["CIRCUIT_SHOPIFY_FAILURE_RATIO"] = "0.25"
	env["OBS_ENABLE_PROMETHEUS"] = "off"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, https://b.example"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.LedgerEnabled())
	require.Equal(t, 0.25, cfg.Outbound.CircuitFailureRatio)
	require.False(t, cfg.Obs.EnablePrometheus)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiresShopifyCredentials(t *testing.T) {
	env := baseEnv()
	env["SHOPIFY_ACCESS_TOKEN"] = ""
	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "SHOPIFY_ACCESS_TOKEN")

	env = baseEnv()
	env["REDIS_URL"] = ""
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "REDIS_URL")
}
