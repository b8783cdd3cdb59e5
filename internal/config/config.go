package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
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
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieDomain    string
	CookieSecure    bool
	CookieSameSite  http.SameSite

	// Pricing knobs. Tax is a flat basis-point rate applied at checkout;
	// a fuller tax engine is out of scope for now.
	TaxRateBps          int
	FreeShippingMinimum int64
	FlatShippingCents   int64

	CatalogCacheTTL   time.Duration
	AnalyticsCacheTTL time.Duration
	IdempotencyTTL    time.Duration
	WebhookReplayTTL  time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	PublicBaseURL string

	NotifyEmailEnabled   bool
	NotifyEmailFrom      string
	WebhookEndpoints     []string
	WebhookSigningSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	SquareAccessToken   string
	SquareSignatureKey  string
	SquareLocationID    string

	ShipStationAPIKey    string
	ShipStationAPISecret string
	ShipFromPostalCode   string

	TikTokAppKey       string
	TikTokAppSecret    string
	TikTokShopID       string
	TikTokSyncInterval time.Duration

	OTLPEndpoint  string
	PprofEnabled  bool
	MigrationsDir string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		CookieDomain:    strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:    parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:  parseSameSite(k.String("COOKIE_SAMESITE")),

		TaxRateBps:          intOrDefault(k.Int("TAX_RATE_BPS"), 825),
		FreeShippingMinimum: int64OrDefault(k.Int64("FREE_SHIPPING_MINIMUM_CENTS"), 7500),
		FlatShippingCents:   int64OrDefault(k.Int64("FLAT_SHIPPING_CENTS"), 599),

		CatalogCacheTTL:   parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		AnalyticsCacheTTL: parseDuration(k.String("ANALYTICS_CACHE_TTL"), "10m"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		WebhookReplayTTL:  parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),

		RateLimitMax:    intOrDefault(k.Int("RATE_LIMIT_MAX"), 120),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),

		PublicBaseURL: strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_BASE_URL")), "/"),

		NotifyEmailEnabled:   parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
		NotifyEmailFrom:      valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "orders@desertcandleworks.com"),
		WebhookEndpoints:     splitAndTrim(k.String("WEBHOOK_ENDPOINTS")),
		WebhookSigningSecret: k.String("WEBHOOK_SIGNING_SECRET"),

		StripeSecretKey:     k.String("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: k.String("STRIPE_WEBHOOK_SECRET"),
		SquareAccessToken:   k.String("SQUARE_ACCESS_TOKEN"),
		SquareSignatureKey:  k.String("SQUARE_SIGNATURE_KEY"),
		SquareLocationID:    k.String("SQUARE_LOCATION_ID"),

		ShipStationAPIKey:    k.String("SHIPSTATION_API_KEY"),
		ShipStationAPISecret: k.String("SHIPSTATION_API_SECRET"),
		ShipFromPostalCode:   valueOrDefault(k.String("SHIP_FROM_POSTAL_CODE"), "85001"),

		TikTokAppKey:       k.String("TIKTOK_APP_KEY"),
		TikTokAppSecret:    k.String("TIKTOK_APP_SECRET"),
		TikTokShopID:       k.String("TIKTOK_SHOP_ID"),
		TikTokSyncInterval: parseDuration(k.String("TIKTOK_SYNC_INTERVAL"), "1h"),

		OTLPEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		PprofEnabled:  parseBool(k.String("PPROF_ENABLED")),
		MigrationsDir: valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TaxRateBps < 0 || cfg.TaxRateBps > 10000 {
		return nil, fmt.Errorf("TAX_RATE_BPS out of range: %d", cfg.TaxRateBps)
	}

	return cfg, nil
}

// IsProduction reports whether the app is running in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
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
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func int64OrDefault(value, fallback int64) int64 {
	if value == 0 {
		return fallback
	}
	return value
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

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
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
