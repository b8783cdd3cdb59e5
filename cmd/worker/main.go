package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/desertcandleworks/backend-store/internal/common"
	"github.com/desertcandleworks/backend-store/internal/config"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
	"github.com/desertcandleworks/backend-store/internal/lock"
	"github.com/desertcandleworks/backend-store/internal/marketplace"
	"github.com/desertcandleworks/backend-store/internal/notify"
	"github.com/desertcandleworks/backend-store/internal/obs"
	"github.com/desertcandleworks/backend-store/internal/resilience"
)

// lockKeySync guards against overlapping marketplace sync runs across
// worker replicas.
const lockKeySync = "sync:tiktok"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "candleworks-worker"

	pool, err := pgxpool.NewWithConfig(initCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(initCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	queries := dbgen.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(initCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	bus := &events.Bus{Store: queries, Notifiers: buildNotifiers(cfg, queries, logger)}

	shop := marketplace.TikTok{
		AppKey:    cfg.TikTokAppKey,
		AppSecret: cfg.TikTokAppSecret,
		ShopID:    cfg.TikTokShopID,
		HTTPClient: resilience.Client{
			Base:        &http.Client{Timeout: 15 * time.Second},
			Breaker:     resilience.NewBreaker("tiktok", 10, 0.5, time.Minute).WithLogger(logger),
			MaxAttempts: 3,
			BaseBackoff: 500 * time.Millisecond,
			Jitter:      0.2,
		},
	}
	syncer := &marketplace.Syncer{
		Q:           queries,
		Shop:        shop,
		Marketplace: marketplace.MarketplaceTikTok,
		Bus:         bus,
		Log:         logger,
	}

	locker := lock.Locker{R: redisClient}
	syncHandler := marketplace.NewSyncHandler(syncer)

	mux := asynq.NewServeMux()
	mux.HandleFunc(marketplace.TypeSync, func(ctx context.Context, task *asynq.Task) error {
		return locker.WithLock(ctx, lockKeySync, 10*time.Minute, func(ctx context.Context) error {
			return syncHandler(ctx, task)
		})
	})

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}

	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: 4,
		Logger:      asynqLogger{logger},
		Queues:      map[string]int{"default": 1},
	})

	scheduler := asynq.NewScheduler(asynqOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger},
	})
	syncTask, err := marketplace.NewSyncTask(marketplace.MarketplaceTikTok)
	if err != nil {
		logger.Fatal().Err(err).Msg("build sync task")
	}
	spec := fmt.Sprintf("@every %s", cfg.TikTokSyncInterval)
	if _, err := scheduler.Register(spec, syncTask); err != nil {
		logger.Fatal().Err(err).Msg("register sync schedule")
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("interval", cfg.TikTokSyncInterval.String()).Msg("scheduler starting")
		errCh <- scheduler.Run()
	}()
	go func() {
		logger.Info().Msg("worker starting")
		errCh <- srv.Run(mux)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("worker exited unexpectedly")
		}
	}

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}

func buildNotifiers(cfg *config.Config, queries *dbgen.Queries, logger zerolog.Logger) []events.Notifier {
	notifiers := []events.Notifier{
		notify.EmailNotifier{
			Q:       queries,
			Mail:    common.NopEmailSender{},
			From:    cfg.NotifyEmailFrom,
			Enabled: cfg.NotifyEmailEnabled,
			Log:     logger,
		},
	}
	if len(cfg.WebhookEndpoints) > 0 {
		notifiers = append(notifiers, notify.WebhookNotifier{
			Endpoints: cfg.WebhookEndpoints,
			Secret:    cfg.WebhookSigningSecret,
			Client: resilience.Client{
				Base:        &http.Client{Timeout: 10 * time.Second},
				Breaker:     resilience.NewBreaker("event-webhooks", 10, 0.5, 30*time.Second).WithLogger(logger),
				MaxAttempts: 3,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			},
			Log: logger,
		})
	}
	return notifiers
}

// asynqLogger adapts zerolog to the asynq.Logger interface.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
