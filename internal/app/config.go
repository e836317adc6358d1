package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration, loadable from
// environment variables (MABEL_ prefix), a .env file, flags, or YAML config
// files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MABEL_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis URL for catalog and history caches; empty disables caching" flag:"redis-url"`
	NATSURL     string `usage:"NATS URL for order events; empty disables publishing" flag:"nats-url"`
	TimeZone    string `default:"Asia/Jakarta" usage:"Store time zone for receipts and daily history" flag:"tz"`
	Auth        AuthConfig
	Cache       CacheConfig
	Media       MediaConfig
	Checkout    CheckoutConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// AuthConfig holds the identity provider's token parameters.
type AuthConfig struct {
	JWTSecret string `usage:"HS256 secret shared with the identity provider" flag:"jwt-secret"`
	Audience  string `default:"authenticated" usage:"Expected token audience" flag:"jwt-audience"`
}

// CacheConfig controls Redis read caches.
type CacheConfig struct {
	TTL    time.Duration `default:"5m" usage:"Catalog and history cache TTL" flag:"cache-ttl"`
	Prefix string        `default:"mabel:" usage:"Key prefix" flag:"cache-prefix"`
}

// MediaConfig controls the local image store.
type MediaConfig struct {
	Root     string `default:"./media" usage:"Directory uploaded images are written to" flag:"media-root"`
	BaseURL  string `default:"/media" usage:"Public URL prefix of the media directory" flag:"media-base-url"`
	MaxBytes int64  `default:"5242880" usage:"Maximum image size in bytes" flag:"media-max-bytes"`
}

// CheckoutConfig controls cashier sessions, receipts and storefront checkout.
type CheckoutConfig struct {
	SessionTTL       time.Duration `default:"2h" usage:"Idle cashier sessions are evicted after this" flag:"session-ttl"`
	SweepInterval    time.Duration `default:"5m" usage:"How often idle sessions are evicted" flag:"session-sweep"`
	ReceiptWidth     int           `default:"42" usage:"Text receipt width in columns" flag:"receipt-width"`
	FallbackWhatsApp string        `default:"6281234567890" usage:"WhatsApp number used when settings have none" flag:"whatsapp-fallback"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from a .env file, environment variables and
// YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MABEL",
		Files:     []string{"config.yaml", "/etc/mabel/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set MABEL_DATABASE_URL or DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set MABEL_AUTH_JWT_SECRET")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return errors.Wrapf(err, "time zone %q", c.TimeZone)
	}
	if c.Checkout.SessionTTL <= 0 {
		return errors.Errorf("session TTL must be positive, got %s", c.Checkout.SessionTTL)
	}
	if c.Checkout.SweepInterval <= 0 {
		return errors.Errorf("session sweep interval must be positive, got %s", c.Checkout.SweepInterval)
	}
	return nil
}

// Location returns the configured store time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL, REDIS_URL and PORT
// to the application's MABEL_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.NATSURL == "" {
		c.NATSURL = os.Getenv("NATS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
