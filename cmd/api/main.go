package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/desertcandleworks/backend-store/internal/analytics"
	"github.com/desertcandleworks/backend-store/internal/auth"
	"github.com/desertcandleworks/backend-store/internal/cart"
	"github.com/desertcandleworks/backend-store/internal/catalog"
	"github.com/desertcandleworks/backend-store/internal/checkout"
	"github.com/desertcandleworks/backend-store/internal/common"
	"github.com/desertcandleworks/backend-store/internal/config"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
	"github.com/desertcandleworks/backend-store/internal/events"
	"github.com/desertcandleworks/backend-store/internal/health"
	"github.com/desertcandleworks/backend-store/internal/inventory"
	"github.com/desertcandleworks/backend-store/internal/marketplace"
	"github.com/desertcandleworks/backend-store/internal/notify"
	"github.com/desertcandleworks/backend-store/internal/obs"
	"github.com/desertcandleworks/backend-store/internal/order"
	"github.com/desertcandleworks/backend-store/internal/payment"
	"github.com/desertcandleworks/backend-store/internal/promo"
	"github.com/desertcandleworks/backend-store/internal/purchase"
	"github.com/desertcandleworks/backend-store/internal/ratelimit"
	"github.com/desertcandleworks/backend-store/internal/recipe"
	"github.com/desertcandleworks/backend-store/internal/resilience"
	"github.com/desertcandleworks/backend-store/internal/security"
	"github.com/desertcandleworks/backend-store/internal/shipping"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "candleworks")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := cfg.OTLPEndpoint != ""
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName: "candleworks-api",
			Endpoint:    cfg.OTLPEndpoint,
			Environment: cfg.AppEnv,
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

	if err := runMigrations(cfg); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

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
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "candleworks-api"

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

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	validate := validator.New()

	// Services.

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      queries,
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: 24,
		MaxLimit:     100,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc, Validate: validate})

	authSvc, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Svc:      authSvc,
		Validate: validate,
		Cookies: &auth.CookieConfig{
			Domain:   cfg.CookieDomain,
			Secure:   cfg.CookieSecure,
			SameSite: cfg.CookieSameSite,
			TTL:      cfg.RefreshTokenTTL,
		},
	}
	authMW := auth.Middleware{Service: authSvc}

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
	bus := &events.Bus{Store: queries, Notifiers: notifiers}

	promoSvc := &promo.Service{Q: queries}
	promoHandler := &promo.Handler{Q: queries, Svc: promoSvc, Validate: validate}

	cartSvc := &cart.Service{
		Q:                   queries,
		Promo:               promoSvc,
		TaxRateBps:          int32(cfg.TaxRateBps),
		FreeShippingMinimum: cfg.FreeShippingMinimum,
		FlatShippingCents:   cfg.FlatShippingCents,
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{Pool: pool, Q: queries, Cart: cartSvc, Bus: bus, Log: logger}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: validate}

	orderHandler := &order.Handler{Q: queries}
	orderAdmin := &order.AdminHandler{Q: queries, Bus: bus}

	var rateClient shipping.Client
	if cfg.ShipStationAPIKey != "" {
		rateClient = shipping.ShipStation{
			APIKey:    cfg.ShipStationAPIKey,
			APISecret: cfg.ShipStationAPISecret,
			HTTPClient: resilience.Client{
				Base:        &http.Client{Timeout: 10 * time.Second},
				Breaker:     resilience.NewBreaker("shipstation", 10, 0.5, 30*time.Second).WithLogger(logger),
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			},
		}
	} else {
		rateClient = shipping.StaticClient{}
	}
	shippingSvc := &shipping.Service{
		Client:              rateClient,
		FreeShippingMinimum: cfg.FreeShippingMinimum,
		FlatShippingCents:   cfg.FlatShippingCents,
		OriginPostalCode:    cfg.ShipFromPostalCode,
		Log:                 logger,
	}
	shippingHandler := &shipping.Handler{Svc: shippingSvc, Validate: validate}

	providers := map[string]payment.Provider{
		"stripe": payment.Stripe{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			HTTPClient: resilience.Client{
				Base:        &http.Client{Timeout: 10 * time.Second},
				Breaker:     resilience.NewBreaker("stripe", 10, 0.5, 30*time.Second).WithLogger(logger),
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			},
		},
		"square": payment.Square{
			AccessToken:     cfg.SquareAccessToken,
			SignatureKey:    cfg.SquareSignatureKey,
			LocationID:      cfg.SquareLocationID,
			NotificationURL: cfg.PublicBaseURL + "/api/v1/webhooks/payment/square",
			HTTPClient: resilience.Client{
				Base:        &http.Client{Timeout: 10 * time.Second},
				Breaker:     resilience.NewBreaker("square", 10, 0.5, 30*time.Second).WithLogger(logger),
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			},
		},
	}
	paymentSvc := &payment.Service{Q: queries, Providers: providers, DefaultProvider: "stripe", Currency: "usd"}
	paymentHandler := &payment.Handler{Svc: paymentSvc}
	paymentWebhook := payment.Webhook{
		Q:         queries,
		Providers: providers,
		Replay:    redisClient,
		ReplayTTL: cfg.WebhookReplayTTL,
		Promo:     promoSvc,
		Bus:       bus,
		Log:       logger,
	}

	analyticsSvc := &analytics.Service{Q: queries, R: redisClient, TTL: cfg.AnalyticsCacheTTL, DefaultRange: 30}
	analyticsHandler := &analytics.Handler{Svc: analyticsSvc}

	purchaseSvc := &purchase.Service{Q: queries, Pool: pool, Tx: queries}
	purchaseHandler := &purchase.Handler{Svc: purchaseSvc, Validate: validate}

	recipeSvc := &recipe.Service{Q: queries, Pool: pool, Tx: queries}
	recipeHandler := &recipe.Handler{Q: queries, Svc: recipeSvc, Validate: validate}

	inventoryHandler := &inventory.Handler{Q: queries, Validate: validate}

	marketplaceHandler := &marketplace.Handler{Q: queries, Tasks: taskClient, Marketplace: marketplace.MarketplaceTikTok}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	authLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:auth:"},
		Config:  ratelimit.Config{Key: ratelimit.ByIP, Window: time.Minute, Max: 20},
		OnError: func(err error) { logger.Error().Err(err).Msg("auth rate limiter") },
	}
	ingestLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:ingest:"},
		Config:  ratelimit.Config{Key: ratelimit.ByIP, Window: time.Minute, Max: 300},
		OnError: func(err error) { logger.Error().Err(err).Msg("ingest rate limiter") },
	}

	globalStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "rl:global"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limit store")
	}
	globalLimiter := limiterstdlib.NewMiddleware(limiter.New(globalStore, limiter.Rate{
		Period: cfg.RateLimitWindow,
		Limit:  int64(cfg.RateLimitMax),
	}))

	// Router.

	buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, buckets, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction(), HSTSIncludeSubdomains: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(globalLimiter.Handler)

	r.Handle("/metrics", promhttp.Handler())
	if cfg.PprofEnabled {
		user := envOrDefault("PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{Checker: readinessChecker{db: pool, redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{slug}", catalogHandler.ProductDetail)
		v.Get("/products/{slug}/related", catalogHandler.Related)

		v.With(ingestLimiter.Middleware).Post("/analytics/page-view", analyticsHandler.PageView)

		v.Route("/auth", func(a chi.Router) {
			a.Use(authLimiter.Middleware)
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			// Refresh and logout ride on the refresh cookie, so they need
			// double-submit protection; login and register do not.
			csrf := security.CSRF{}
			a.With(csrf.Middleware).Post("/refresh", authHandler.Refresh)
			a.With(csrf.Middleware).Post("/logout", authHandler.Logout)
			a.With(authMW.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Use(authMW.Authenticate)
			c.Get("/{id}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{itemId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{itemId}", cartHandler.RemoveItem)
				g.Post("/{id}/promo", cartHandler.ApplyPromo)
				g.Delete("/{id}/promo", cartHandler.RemovePromo)
			})
		})

		v.Post("/shipping/quote", shippingHandler.Quote)

		v.With(authMW.RequireAuth, idem.Middleware).Post("/checkout", checkoutHandler.Create)

		v.Group(func(g chi.Router) {
			g.Use(authMW.RequireAuth)
			g.Get("/orders", orderHandler.List)
			g.Get("/orders/{orderId}", orderHandler.Get)
			g.Post("/orders/{orderId}/cancel", orderHandler.Cancel)

			g.With(idem.Middleware).Post("/payments/intent", paymentHandler.Intent)
			g.Get("/payments/{orderId}/status", paymentHandler.Status)
		})

		v.Post("/webhooks/payment/{provider}", paymentWebhook.Handle)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMW.RequireAdmin)

			admin.Post("/products", catalogHandler.CreateProduct)
			admin.Put("/products/{id}", catalogHandler.UpdateProduct)
			admin.Post("/products/{id}/variants", catalogHandler.CreateVariant)
			admin.Post("/variants/{id}/stock", catalogHandler.AdjustStock)

			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)

			admin.Post("/promotions", promoHandler.Create)
			admin.Get("/promotions", promoHandler.List)
			admin.Get("/promotions/{id}", promoHandler.Get)
			admin.Put("/promotions/{id}", promoHandler.Update)
			admin.Delete("/promotions/{id}", promoHandler.Delete)
			admin.Post("/promotions/preview", promoHandler.Preview)

			admin.Post("/purchases", purchaseHandler.Create)
			admin.Get("/purchases", purchaseHandler.List)
			admin.Get("/purchases/{id}", purchaseHandler.Get)
			admin.Put("/purchases/{id}", purchaseHandler.Update)
			admin.Delete("/purchases/{id}", purchaseHandler.Delete)
			admin.Get("/purchases/{id}/allocation", purchaseHandler.Allocation)

			admin.Post("/scents", recipeHandler.CreateScent)
			admin.Get("/scents", recipeHandler.ListScents)
			admin.Put("/scents/{id}", recipeHandler.UpdateScent)
			admin.Delete("/scents/{id}", recipeHandler.DeleteScent)
			admin.Post("/blends", recipeHandler.CreateBlend)
			admin.Get("/blends", recipeHandler.ListBlends)
			admin.Delete("/blends/{id}", recipeHandler.DeleteBlend)
			admin.Post("/containers", recipeHandler.CreateContainer)
			admin.Get("/containers", recipeHandler.ListContainers)
			admin.Delete("/containers/{id}", recipeHandler.DeleteContainer)
			admin.Post("/recipes", recipeHandler.CreateRecipe)
			admin.Get("/recipes", recipeHandler.ListRecipes)
			admin.Put("/recipes/{id}", recipeHandler.UpdateRecipe)
			admin.Delete("/recipes/{id}", recipeHandler.DeleteRecipe)
			admin.Get("/recipes/{id}/cost", recipeHandler.Cost)

			admin.Post("/inventory", inventoryHandler.Create)
			admin.Get("/inventory", inventoryHandler.List)
			admin.Get("/inventory/valuation", inventoryHandler.Valuation)
			admin.Get("/inventory/{id}", inventoryHandler.Get)
			admin.Post("/inventory/{id}/adjust", inventoryHandler.Adjust)
			admin.Delete("/inventory/{id}", inventoryHandler.Delete)

			admin.Get("/marketplace/listings", marketplaceHandler.Listings)
			admin.Post("/marketplace/sync", marketplaceHandler.TriggerSync)

			admin.Get("/analytics/sales", analyticsHandler.DailySales)
			admin.Get("/analytics/top-products", analyticsHandler.TopProducts)
			admin.Get("/analytics/page-views", analyticsHandler.PageViews)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		health.SetReady(false)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}
	logger.Info().Msg("server stopped")
}

func runMigrations(cfg *config.Config) error {
	if cfg.MigrationsDir == "" {
		return nil
	}
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
