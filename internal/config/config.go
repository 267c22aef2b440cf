package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type RateLimitConfig struct {
	Messages  int           `yaml:"messages"`  // per user per window
	Callbacks int           `yaml:"callbacks"` // per user per window
	Window    time.Duration `yaml:"window"`
}

type BotConfig struct {
	Token          string          `yaml:"token"`
	Workers        int             `yaml:"workers"`    // per-user lanes
	QueueSize      int             `yaml:"queue_size"` // buffered events per lane
	HandlerTimeout time.Duration   `yaml:"handler_timeout"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // session cache entries
}

type ShopConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type StripeConfig struct {
	SecretKey string        `yaml:"secret_key"`
	APIBase   string        `yaml:"api_base"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PaymentConfig struct {
	Provider string       `yaml:"provider"` // stripe|noop
	Stripe   StripeConfig `yaml:"stripe"`
}

type StateConfig struct {
	Backend  string        `yaml:"backend"` // memory|redis|bolt
	BoltPath string        `yaml:"bolt_path"`
	TTL      time.Duration `yaml:"ttl"` // idle flow expiry; 0 keeps flows until they finish
}

type SessionConfig struct {
	LoginLifetimeHours int `yaml:"login_lifetime_hours"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Shop     ShopConfig     `yaml:"shop"`
	Payment  PaymentConfig  `yaml:"payment"`
	State    StateConfig    `yaml:"state"`
	Session  SessionConfig  `yaml:"session"`
	Locale   string         `yaml:"locale"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. Secrets may still hold "ssm:" refs;
// resolve them with secrets.Resolve before use.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"BOT_TOKEN":         &cfg.Bot.Token,
		"DATABASE_URL":      &cfg.Database.URL,
		"REDIS_URL":         &cfg.Redis.URL,
		"SHOP_HOST":         &cfg.Shop.Host,
		"STRIPE_SECRET_KEY": &cfg.Payment.Stripe.SecretKey,
	}
	for env, dst := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.QueueSize <= 0 {
		cfg.Bot.QueueSize = 64
	}
	if cfg.Bot.HandlerTimeout <= 0 {
		cfg.Bot.HandlerTimeout = 30 * time.Second
	}
	if cfg.Bot.RateLimit.Window <= 0 {
		cfg.Bot.RateLimit.Window = time.Minute
	}
	if cfg.Bot.RateLimit.Messages <= 0 {
		cfg.Bot.RateLimit.Messages = 20
	}
	if cfg.Bot.RateLimit.Callbacks <= 0 {
		cfg.Bot.RateLimit.Callbacks = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime <= 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL, 10*time.Minute)

	if cfg.Shop.Host == "" {
		cfg.Shop.Host = "http://127.0.0.1:8000"
	}
	cfg.Shop.Host = strings.TrimRight(cfg.Shop.Host, "/")
	if cfg.Shop.Timeout <= 0 {
		cfg.Shop.Timeout = 15 * time.Second
	}

	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "stripe"
	}
	if cfg.Payment.Stripe.APIBase == "" {
		cfg.Payment.Stripe.APIBase = "https://api.stripe.com"
	}
	if cfg.Payment.Stripe.Timeout <= 0 {
		cfg.Payment.Stripe.Timeout = 15 * time.Second
	}

	if cfg.State.Backend == "" {
		cfg.State.Backend = "memory"
	}
	if cfg.State.BoltPath == "" {
		cfg.State.BoltPath = "conversation.db"
	}
	if cfg.State.TTL < 0 {
		cfg.State.TTL = 0
	}

	if cfg.Session.LoginLifetimeHours <= 0 {
		cfg.Session.LoginLifetimeHours = 50
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
}

// Validate performs minimal validation.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch c.Payment.Provider {
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return errors.New("payment.stripe.secret_key is required")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown payment.provider %q", c.Payment.Provider)
	}
	switch c.State.Backend {
	case "memory", "bolt":
	case "redis":
		if !c.Redis.Enabled {
			return errors.New("state.backend=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unknown state.backend %q", c.State.Backend)
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis is enabled")
	}
	return nil
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
