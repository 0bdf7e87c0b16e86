package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cache"
	"github.com/noah-isme/wholesale-pricing/internal/config"
	"github.com/noah-isme/wholesale-pricing/internal/jobs"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
	"github.com/noah-isme/wholesale-pricing/internal/resilience"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
	"github.com/noah-isme/wholesale-pricing/internal/spend"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	if err := resilience.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal().Err(err).Msg("register resilience metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "shopify",
		MinRequests:  cfg.Outbound.CircuitMinRequests,
		FailureRatio: cfg.Outbound.CircuitFailureRatio,
		OpenFor:      cfg.Outbound.CircuitOpenFor,
		Logger:       &logger,
	})
	shop, err := shopify.New(shopify.Config{
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

	spendSvc := spend.NewService(spend.Config{
		Source: shop,
		Cache:  cache.New(redisClient, "wholesale:", cfg.LifetimeSpendTTL),
		Logger: &logger,
	})

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis uri")
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          map[string]int{jobs.DefaultQueue: 1},
		Logger:          jobs.Logger{L: logger.With().Str("subsystem", "asynq").Logger()},
		ShutdownTimeout: cfg.ShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn().Err(err).Str("task", task.Type()).Int("retried", retried).Int("max_retry", maxRetry).Msg("task_failed")
		}),
	})

	mux := jobs.NewServeMux(jobs.SpendRefreshHandler{Spend: spendSvc, Logger: logger})
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Str("queue", jobs.DefaultQueue).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}
