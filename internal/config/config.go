package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	Shopify ShopifyConfig

	CatalogPath       string
	WholesaleTag      string
	LifetimeSpendTTL  time.Duration
	RateLimit         string
	BodyLimitBytes    int64
	IdempotencyTTL    time.Duration
	LockTTL           time.Duration
	LockMaxWait       time.Duration
	DraftPaymentDue   bool
	WorkerConcurrency int
	ShutdownTimeout   time.Duration

	Outbound OutboundConfig
	Obs      ObsConfig
}

// ShopifyConfig addresses the Admin REST API.
type ShopifyConfig struct {
	ShopName    string
	AccessToken string
	APIVersion  string
	BaseURL     string
}

// OutboundConfig tunes retries, timeouts and the circuit breaker for Shopify calls.
type OutboundConfig struct {
	Timeout             time.Duration
	RetryMaxAttempts    int
	RetryBaseBackoff    time.Duration
	RetryJitter         float64
	RetryMaxAfter       time.Duration
	CircuitMinRequests  int
	CircuitFailureRatio float64
	CircuitOpenFor      time.Duration
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	EnablePrometheus bool
	// HTTPBucketsMS is a comma separated list of latency buckets in ms.
	HTTPBucketsMS    string
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "3000"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		Shopify: ShopifyConfig{
			ShopName:    strings.TrimSpace(k.String("SHOPIFY_SHOP_NAME")),
			AccessToken: strings.TrimSpace(k.String("SHOPIFY_ACCESS_TOKEN")),
			APIVersion:  valueOrDefault(k.String("SHOPIFY_API_VERSION"), "2024-01"),
			BaseURL:     strings.TrimSpace(k.String("SHOPIFY_BASE_URL")),
		},
		CatalogPath:       strings.TrimSpace(k.String("CATALOG_PATH")),
		WholesaleTag:      valueOrDefault(k.String("WHOLESALE_TAG"), "wholesale"),
		LifetimeSpendTTL:  parseDuration(k.String("LIFETIME_SPEND_TTL"), "15m"),
		RateLimit:         valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		BodyLimitBytes:    parseInt64(k.String("BODY_LIMIT_BYTES"), 10<<20),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:           parseDuration(k.String("LOCK_TTL"), "30s"),
		LockMaxWait:       parseDuration(k.String("LOCK_MAX_WAIT"), "5s"),
		DraftPaymentDue:   parseBool(k.String("DRAFT_PAYMENT_PENDING"), false),
		WorkerConcurrency: int(parseInt64(k.String("WORKER_CONCURRENCY"), 10)),
		ShutdownTimeout:   parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		Outbound: OutboundConfig{
			Timeout:             parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
			RetryMaxAttempts:    int(parseInt64(k.String("RETRY_MAX_ATTEMPTS"), 3)),
			RetryBaseBackoff:    parseDuration(k.String("RETRY_BASE_BACKOFF"), "200ms"),
			RetryJitter:         parseFloat(k.String("RETRY_JITTER_PCT"), 0.2),
			RetryMaxAfter:       parseDuration(k.String("RETRY_MAX_AFTER"), "5s"),
			CircuitMinRequests:  int(parseInt64(k.String("CIRCUIT_SHOPIFY_MIN_REQUESTS"), 10)),
			CircuitFailureRatio: parseFloat(k.String("CIRCUIT_SHOPIFY_FAILURE_RATIO"), 0.5),
			CircuitOpenFor:      parseDuration(k.String("CIRCUIT_SHOPIFY_OPEN_FOR"), "30s"),
		},
		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "wholesale"),
			EnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			HTTPBucketsMS:    strings.TrimSpace(k.String("OBS_HTTP_BUCKETS_MS")),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			EnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.Shopify.ShopName == "" && cfg.Shopify.BaseURL == "" {
		return nil, errors.New("SHOPIFY_SHOP_NAME is required")
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, errors.New("SHOPIFY_ACCESS_TOKEN is required")
	}
	if cfg.BodyLimitBytes <= 0 {
		return nil, fmt.Errorf("BODY_LIMIT_BYTES must be positive, got %d", cfg.BodyLimitBytes)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// LedgerEnabled reports whether draft orders are recorded in Postgres.
func (c *Config) LedgerEnabled() bool {
	return c.DatabaseURL != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
