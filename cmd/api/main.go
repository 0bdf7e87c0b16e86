package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cache"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/common"
	"github.com/noah-isme/wholesale-pricing/internal/config"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/draftorder"
	"github.com/noah-isme/wholesale-pricing/internal/health"
	"github.com/noah-isme/wholesale-pricing/internal/jobs"
	"github.com/noah-isme/wholesale-pricing/internal/lock"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
	"github.com/noah-isme/wholesale-pricing/internal/ratelimit"
	"github.com/noah-isme/wholesale-pricing/internal/resilience"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
	"github.com/noah-isme/wholesale-pricing/internal/spend"
	"github.com/noah-isme/wholesale-pricing/internal/wholesale"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Str("component", "api").Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	if err := resilience.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal().Err(err).Msg("register resilience metrics")
	}

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "wholesale-pricing-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	pool := initLedger(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	var store draftorder.Store = draftorder.NopStore{}
	if pool != nil {
		store = draftorder.NewPGStore(pool)
	}

	book := mustLoadCatalog(cfg, logger)
	engine, err := discount.NewEngine(discount.EngineConfig{Catalog: book, Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise discount engine")
	}

	shop := mustInitShopify(cfg, logger)
	spendSvc := spend.NewService(spend.Config{
		Source: shop,
		Cache:  cache.New(redisClient, "wholesale:", cfg.LifetimeSpendTTL),
		Logger: &logger,
	})

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis uri")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	scheduler := jobs.Scheduler{Client: taskClient, Queue: jobs.DefaultQueue, MaxRetry: 5, Unique: time.Minute, Delay: 30 * time.Second}

	pricer := &wholesale.Pricer{Engine: engine, Spend: spendSvc, WholesaleTag: cfg.WholesaleTag, Logger: logger}
	draftSvc, err := draftorder.NewService(draftorder.Config{
		Quoter:         pricer,
		Drafts:         shop,
		Locker:         lock.Locker{R: redisClient, Prefix: "wholesale:lock:", MaxWait: cfg.LockMaxWait},
		LockTTL:        cfg.LockTTL,
		Store:          store,
		Spend:          spendSvc,
		Jobs:           scheduler,
		PaymentPending: cfg.DraftPaymentDue,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise draft order service")
	}

	limiterStore, err := ratelimit.NewRedisStore(redisClient, "wholesale:ratelimit")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limit store")
	}
	lim, err := ratelimit.New(cfg.RateLimit, limiterStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	deps := routerDeps{
		Logger:      logger,
		Tracing:     tracingEnabled,
		CORSOrigins: cfg.CORSAllowedOrigins,
		BodyLimit:   cfg.BodyLimitBytes,
		Limiter:     lim,
		Idem:        common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL, Prefix: "wholesale:idem:"},
		Health: health.Handler{
			Checker:      health.Deps{DB: pool, Redis: redisClient},
			DBTimeout:    500 * time.Millisecond,
			RedisTimeout: 300 * time.Millisecond,
		},
		Catalog:   catalog.NewHandler(catalog.HandlerConfig{Catalog: book}),
		Wholesale: wholesale.NewHandler(wholesale.HandlerConfig{Pricer: pricer, Shop: shop, Logger: logger}),
		Drafts:    draftorder.NewHandler(draftSvc, logger),
	}
	if cfg.Obs.EnablePrometheus {
		deps.HTTPMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.HTTPBucketsMS), nil)
		deps.Metrics = promhttp.Handler()
	}
	if cfg.Obs.EnablePprof {
		deps.Pprof = protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Int("catalog_skus", len(book.Entries())).Bool("ledger", pool != nil).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

// initLedger migrates and connects the draft order ledger. It returns nil when
// DATABASE_URL is unset.
func initLedger(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	if !cfg.LedgerEnabled() {
		logger.Info().Msg("draft order ledger disabled")
		return nil
	}
	if err := draftorder.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrate ledger")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "wholesale-pricing-api"

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustLoadCatalog(cfg *config.Config, logger zerolog.Logger) *catalog.Catalog {
	if cfg.CatalogPath == "" {
		book, err := catalog.Default()
		if err != nil {
			logger.Fatal().Err(err).Msg("load embedded catalog")
		}
		return book
	}
	book, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog")
	}
	return book
}

func mustInitShopify(cfg *config.Config, logger zerolog.Logger) *shopify.Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "shopify",
		MinRequests:  cfg.Outbound.CircuitMinRequests,
		FailureRatio: cfg.Outbound.CircuitFailureRatio,
		OpenFor:      cfg.Outbound.CircuitOpenFor,
		Logger:       &logger,
	})
	client, err := shopify.New(shopify.Config{
		ShopName:    cfg.Shopify.ShopName,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		BaseURL:     cfg.Shopify.BaseURL,
		HTTP: resilience.HTTPClient{
			Client:        shopify.NewHTTPClient(cfg.Outbound.Timeout),
			Breaker:       breaker,
			Target:        "shopify",
			BaseBackoff:   cfg.Outbound.RetryBaseBackoff,
			MaxAttempts:   cfg.Outbound.RetryMaxAttempts,
			Jitter:        cfg.Outbound.RetryJitter,
			Timeout:       cfg.Outbound.Timeout,
			MaxRetryAfter: cfg.Outbound.RetryMaxAfter,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise shopify client")
	}
	return client
}
