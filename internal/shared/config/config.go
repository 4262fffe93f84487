package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// HTTPClientConfig holds outbound HTTP client settings.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
}

// PaymentConfig holds gateway and reconciliation settings.
type PaymentConfig struct {
	GatewayTimeout      time.Duration `mapstructure:"gateway_timeout"`
	BreakerFailures     uint32        `mapstructure:"breaker_failures"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
	StatusRetryAttempts int           `mapstructure:"status_retry_attempts"`
	StatusRetryBackoff  time.Duration `mapstructure:"status_retry_backoff"`
	ReconcileAttempts   int           `mapstructure:"reconcile_attempts"`
	PIX                 PIXConfig     `mapstructure:"pix"`
	Wechat              WechatConfig  `mapstructure:"wechat"`
}

// PIXConfig holds the PIX (Mercado Pago) gateway configuration.
type PIXConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	BaseURL         string `mapstructure:"base_url"`
	AccessToken     string `mapstructure:"access_token"`
	WebhookSecret   string `mapstructure:"webhook_secret"`
	NotificationURL string `mapstructure:"notification_url"`
	PayerEmail      string `mapstructure:"payer_email"`
}

// WechatConfig holds WeChat Pay configuration.
type WechatConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	AppID                 string `mapstructure:"app_id"`
	MchID                 string `mapstructure:"mch_id"`                   // Merchant ID
	APIKeyV3              string `mapstructure:"api_key_v3"`               // APIv3 Key
	SerialNo              string `mapstructure:"serial_no"`                // Certificate serial number
	PrivateKey            string `mapstructure:"private_key"`              // Private key (PEM format)
	WechatPublicKeySerial string `mapstructure:"wechat_public_key_serial"` // Platform cert serial
	WechatPublicKey       string `mapstructure:"wechat_public_key"`        // Platform public key (PEM)
	IsProd                bool   `mapstructure:"is_prod"`
	NotifyURL             string `mapstructure:"notify_url"`
}

// WebhookConfig holds provider notification settings.
type WebhookConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// RateLimitConfig limits checkout requests per client IP.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from .env, the config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/storefront")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets are only ever taken from the environment when set there.
	overrideFromEnv(&cfg)

	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if password := os.Getenv("STOREFRONT_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("STOREFRONT_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if token := os.Getenv("STOREFRONT_PIX_ACCESS_TOKEN"); token != "" {
		cfg.Payment.PIX.AccessToken = token
	}
	if secret := os.Getenv("STOREFRONT_PIX_WEBHOOK_SECRET"); secret != "" {
		cfg.Payment.PIX.WebhookSecret = secret
	}
	if apiKey := os.Getenv("STOREFRONT_WECHAT_API_KEY_V3"); apiKey != "" {
		cfg.Payment.Wechat.APIKeyV3 = apiKey
	}
	if privateKey := os.Getenv("STOREFRONT_WECHAT_PRIVATE_KEY"); privateKey != "" {
		cfg.Payment.Wechat.PrivateKey = privateKey
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "storefront")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 10)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 5*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 5*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Payment defaults
	v.SetDefault("payment.gateway_timeout", 10*time.Second)
	v.SetDefault("payment.breaker_failures", 5)
	v.SetDefault("payment.breaker_open_timeout", 30*time.Second)
	v.SetDefault("payment.status_retry_attempts", 3)
	v.SetDefault("payment.status_retry_backoff", 200*time.Millisecond)
	v.SetDefault("payment.reconcile_attempts", 3)
	v.SetDefault("payment.pix.base_url", "https://api.mercadopago.com")

	// Webhook defaults
	v.SetDefault("webhook.max_body_bytes", 1<<20)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "storefront")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
