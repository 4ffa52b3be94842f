package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Stripe    StripeConfig
	Storage   StorageConfig
	Checkout  CheckoutConfig
	Currency  CurrencyConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	Printing  PrintingConfig
	Telemetry TelemetryConfig
	Swagger   SwaggerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name       string
	Env        string
	Port       string
	PublicURL  string // storefront origin used for checkout return links
	StoreName  string
	SupportURL string
}

// IsProduction returns true in the production environment
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings for admin sessions
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxLoginAttempts       int
	LockDuration           time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
	CartCookieName        string
	CartCookieSecure      bool
	CartCookieMaxAge      time.Duration
}

// SwaggerConfig controls the API documentation endpoint
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // admin bearer token required
	AllowedIPs  []string // IPs or CIDRs, empty allows all
}

// StripeConfig holds card provider settings
type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	SuccessPath    string // appended to App.PublicURL; {ORDER_NUMBER} is replaced
	CancelPath     string
	IdempotencyTTL time.Duration
}

// Enabled returns true if card payments can be taken
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// IsTestMode returns true for sk_test_ keys
func (s StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(s.SecretKey, "sk_test_")
}

// StorageConfig holds S3-compatible object storage and CDN settings
type StorageConfig struct {
	Type           string // s3 or stub
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
	PublicBaseURL  string // CDN origin images are served from
	PresignExpiry  time.Duration
	MaxUploadBytes int64
}

// CheckoutConfig holds checkout and cart rules
type CheckoutConfig struct {
	ShippingFlatRate      decimal.Decimal // base currency
	FreeShippingThreshold decimal.Decimal // base currency, zero disables
	CODEnabled            bool
	CODCountries          []string // empty allows every country
	SessionTTL            time.Duration
	CartTTL               time.Duration
	LowStockThreshold     int
}

// CurrencyConfig holds multi-currency settings
type CurrencyConfig struct {
	Base          string
	Default       string // display currency when the request names none
	DefaultLocale string
	CacheTTL      time.Duration
}

// EmailConfig holds transactional email settings
type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
	FromName     string
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled           bool
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	ReconcileBatch    int
	CartPurgeInterval time.Duration
	JobTimeout        time.Duration
}

// PrintingConfig holds invoice PDF rendering settings
type PrintingConfig struct {
	ChromePath    string
	RenderTimeout time.Duration
	MaxConcurrent int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBSlowQueryThresh time.Duration
	MetricsEnabled    bool          // Export OTLP metrics (HTTP, DB pool, shop counters)
	MetricsInterval   time.Duration // Metrics export interval
	LogsEnabled       bool          // Mirror zap logs to the collector
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// Load loads configuration from a .env file, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g., SHOP_DATABASE_PASSWORD)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:       v.GetString("app.name"),
			Env:        v.GetString("app.env"),
			Port:       v.GetString("app.port"),
			PublicURL:  v.GetString("app.public_url"),
			StoreName:  v.GetString("app.store_name"),
			SupportURL: v.GetString("app.support_url"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxLoginAttempts:       v.GetInt("jwt.max_login_attempts"),
			LockDuration:           v.GetDuration("jwt.lock_duration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
			CartCookieName:        v.GetString("http.cart_cookie_name"),
			CartCookieSecure:      v.GetBool("http.cart_cookie_secure"),
			CartCookieMaxAge:      v.GetDuration("http.cart_cookie_max_age"),
		},
		Stripe: StripeConfig{
			SecretKey:      v.GetString("stripe.secret_key"),
			WebhookSecret:  v.GetString("stripe.webhook_secret"),
			SuccessPath:    v.GetString("stripe.success_path"),
			CancelPath:     v.GetString("stripe.cancel_path"),
			IdempotencyTTL: v.GetDuration("stripe.idempotency_ttl"),
		},
		Storage: StorageConfig{
			Type:           v.GetString("storage.type"),
			Endpoint:       v.GetString("storage.endpoint"),
			Region:         v.GetString("storage.region"),
			Bucket:         v.GetString("storage.bucket"),
			AccessKey:      v.GetString("storage.access_key"),
			SecretKey:      v.GetString("storage.secret_key"),
			UsePathStyle:   v.GetBool("storage.use_path_style"),
			PublicBaseURL:  v.GetString("storage.public_base_url"),
			PresignExpiry:  v.GetDuration("storage.presign_expiry"),
			MaxUploadBytes: v.GetInt64("storage.max_upload_bytes"),
		},
		Checkout: CheckoutConfig{
			ShippingFlatRate:      decimalOrZero(v.GetString("checkout.shipping_flat_rate")),
			FreeShippingThreshold: decimalOrZero(v.GetString("checkout.free_shipping_threshold")),
			CODEnabled:            v.GetBool("checkout.cod_enabled"),
			CODCountries:          v.GetStringSlice("checkout.cod_countries"),
			SessionTTL:            v.GetDuration("checkout.session_ttl"),
			CartTTL:               v.GetDuration("checkout.cart_ttl"),
			LowStockThreshold:     v.GetInt("checkout.low_stock_threshold"),
		},
		Currency: CurrencyConfig{
			Base:          v.GetString("currency.base"),
			Default:       v.GetString("currency.default"),
			DefaultLocale: v.GetString("currency.default_locale"),
			CacheTTL:      v.GetDuration("currency.cache_ttl"),
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("email.resend_api_key"),
			FromAddress:  v.GetString("email.from_address"),
			FromName:     v.GetString("email.from_name"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			ReconcileInterval: v.GetDuration("scheduler.reconcile_interval"),
			ReconcileAfter:    v.GetDuration("scheduler.reconcile_after"),
			ReconcileBatch:    v.GetInt("scheduler.reconcile_batch"),
			CartPurgeInterval: v.GetDuration("scheduler.cart_purge_interval"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
		},
		Printing: PrintingConfig{
			ChromePath:    v.GetString("printing.chrome_path"),
			RenderTimeout: v.GetDuration("printing.render_timeout"),
			MaxConcurrent: v.GetInt("printing.max_concurrent"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeURL:      v.GetString("telemetry.pyroscope_url"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
	}

	// COD is on unless explicitly switched off
	if !v.IsSet("checkout.cod_enabled") {
		cfg.Checkout.CODEnabled = true
	}
	if !v.IsSet("swagger.enabled") {
		cfg.Swagger.Enabled = true
	}
	if !v.IsSet("swagger.require_auth") {
		cfg.Swagger.RequireAuth = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:3000"
	}
	cfg.App.PublicURL = strings.TrimRight(cfg.App.PublicURL, "/")
	if cfg.App.StoreName == "" {
		cfg.App.StoreName = "Storefront"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 168 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storefront"
	}
	if cfg.JWT.MaxLoginAttempts == 0 {
		cfg.JWT.MaxLoginAttempts = 5
	}
	if cfg.JWT.LockDuration == 0 {
		cfg.JWT.LockDuration = 15 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, images go straight to storage
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 120
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// CORS origins have no wildcard fallback; cross-origin access must be configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Cart-Session", "X-Currency"}
	}
	if cfg.HTTP.CartCookieName == "" {
		cfg.HTTP.CartCookieName = "cart_session"
	}
	if cfg.HTTP.CartCookieMaxAge == 0 {
		cfg.HTTP.CartCookieMaxAge = 30 * 24 * time.Hour
	}
	if cfg.Stripe.SuccessPath == "" {
		cfg.Stripe.SuccessPath = "/checkout/success?order={ORDER_NUMBER}"
	}
	if cfg.Stripe.CancelPath == "" {
		cfg.Stripe.CancelPath = "/checkout/cancelled?order={ORDER_NUMBER}"
	}
	if cfg.Stripe.IdempotencyTTL == 0 {
		cfg.Stripe.IdempotencyTTL = 72 * time.Hour
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "stub"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "storefront-media"
	}
	if cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = "http://localhost:9000/storefront-media"
	}
	cfg.Storage.PublicBaseURL = strings.TrimRight(cfg.Storage.PublicBaseURL, "/")
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Storage.MaxUploadBytes == 0 {
		cfg.Storage.MaxUploadBytes = 10 << 20 // 10MB
	}
	if cfg.Checkout.SessionTTL == 0 {
		cfg.Checkout.SessionTTL = time.Hour
	}
	if cfg.Checkout.CartTTL == 0 {
		cfg.Checkout.CartTTL = 30 * 24 * time.Hour
	}
	if cfg.Checkout.LowStockThreshold == 0 {
		cfg.Checkout.LowStockThreshold = 5
	}
	if cfg.Currency.Base == "" {
		cfg.Currency.Base = "USD"
	}
	if cfg.Currency.Default == "" {
		cfg.Currency.Default = cfg.Currency.Base
	}
	if cfg.Currency.DefaultLocale == "" {
		cfg.Currency.DefaultLocale = "en-US"
	}
	if cfg.Currency.CacheTTL == 0 {
		cfg.Currency.CacheTTL = 5 * time.Minute
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = cfg.App.StoreName
	}
	if cfg.Scheduler.ReconcileInterval == 0 {
		cfg.Scheduler.ReconcileInterval = 10 * time.Minute
	}
	if cfg.Scheduler.ReconcileAfter == 0 {
		cfg.Scheduler.ReconcileAfter = 30 * time.Minute
	}
	if cfg.Scheduler.ReconcileBatch == 0 {
		cfg.Scheduler.ReconcileBatch = 100
	}
	if cfg.Scheduler.CartPurgeInterval == 0 {
		cfg.Scheduler.CartPurgeInterval = 6 * time.Hour
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
	if cfg.Printing.MaxConcurrent == 0 {
		cfg.Printing.MaxConcurrent = 2
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Checkout.ShippingFlatRate.IsNegative() || c.Checkout.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("checkout shipping amounts cannot be negative")
	}
	if c.Checkout.SessionTTL < 30*time.Minute || c.Checkout.SessionTTL > 24*time.Hour {
		return fmt.Errorf("checkout.session_ttl must be between 30m and 24h, got %s", c.Checkout.SessionTTL)
	}
	if c.Storage.Type != "s3" && c.Storage.Type != "stub" {
		return fmt.Errorf("storage.type must be 's3' or 'stub', got %q", c.Storage.Type)
	}
	if c.Stripe.SecretKey != "" &&
		!strings.HasPrefix(c.Stripe.SecretKey, "sk_test_") && !strings.HasPrefix(c.Stripe.SecretKey, "sk_live_") &&
		!strings.HasPrefix(c.Stripe.SecretKey, "rk_test_") && !strings.HasPrefix(c.Stripe.SecretKey, "rk_live_") {
		return fmt.Errorf("stripe.secret_key must start with sk_test_, sk_live_, rk_test_ or rk_live_")
	}
	if c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe.webhook_secret is required when stripe.secret_key is set")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.HTTP.CartCookieSecure {
			return fmt.Errorf("http.cart_cookie_secure must be true in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Storage.Type == "stub" {
			return fmt.Errorf("storage.type cannot be 'stub' in production")
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
