package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/epi-platform/admin-api/pkg/messaging/redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Backend   BackendConfig   `mapstructure:"backend"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Regions   []RegionConfig  `mapstructure:"regions"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Mail      MailConfig      `mapstructure:"mail"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type BackendConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	Channel      string        `mapstructure:"channel"`
	GuardTTL     time.Duration `mapstructure:"guard_ttl"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Enabled reports whether an audit database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// RegionConfig is one entry of the supported region registry.
type RegionConfig struct {
	Code     string `mapstructure:"code"`
	Name     string `mapstructure:"name"`
	Flag     string `mapstructure:"flag"`
	Currency string `mapstructure:"currency"`
}

type CatalogConfig struct {
	LowStockThreshold        int           `mapstructure:"low_stock_threshold"`
	RequireRegionForRegional bool          `mapstructure:"require_region_for_regional"`
	StoreTTL                 time.Duration `mapstructure:"store_ttl"`
	RefreshInterval          time.Duration `mapstructure:"refresh_interval"`
	TreeMaxDepth             int           `mapstructure:"tree_max_depth"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MailConfig struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
}

type AuditConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// envOverrides are the EPI_* variables that win over the YAML file.
type envOverrides struct {
	ServerPort     int    `envconfig:"SERVER_PORT"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	BackendBaseURL string `envconfig:"BACKEND_BASE_URL"`
	BackendToken   string `envconfig:"BACKEND_TOKEN"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	RedisURL       string `envconfig:"REDIS_URL"`
	DatabaseHost   string `envconfig:"DATABASE_HOST"`
	DatabasePort   int    `envconfig:"DATABASE_PORT"`
	DatabaseUser   string `envconfig:"DATABASE_USER"`
	DatabasePass   string `envconfig:"DATABASE_PASSWORD"`
	DatabaseName   string `envconfig:"DATABASE_NAME"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_timeout", 30*time.Second)
	v.SetDefault("backend.max_upload_bytes", 10<<20)
	v.SetDefault("redis.channel", "catalog.events")
	v.SetDefault("redis.guard_ttl", 30*time.Second)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("catalog.low_stock_threshold", 3)
	v.SetDefault("catalog.require_region_for_regional", true)
	v.SetDefault("catalog.store_ttl", 10*time.Minute)
	v.SetDefault("catalog.refresh_interval", 60*time.Second)
	v.SetDefault("catalog.tree_max_depth", 10)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("mail.port", 587)
	v.SetDefault("audit.retention_days", 180)
	v.SetDefault("audit.cleanup_interval", 24*time.Hour)
}

// LoadConfig reads config.yml from the usual locations, then applies .env and
// EPI_* environment overrides.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")
	v.AddConfigPath("/app/config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

// LoadFile reads a specific config file. Used by tests and the -config flag.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("EPI", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyEnv(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.ServerPort != 0 {
		c.Server.Port = env.ServerPort
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.BackendBaseURL != "" {
		c.Backend.BaseURL = env.BackendBaseURL
	}
	if env.BackendToken != "" {
		c.Backend.Token = env.BackendToken
	}
	if env.JWTSecret != "" {
		c.JWT.Secret = env.JWTSecret
	}
	if env.RedisURL != "" {
		c.Redis.URL = env.RedisURL
	}
	if env.DatabaseHost != "" {
		c.Database.Host = env.DatabaseHost
	}
	if env.DatabasePort != 0 {
		c.Database.Port = env.DatabasePort
	}
	if env.DatabaseUser != "" {
		c.Database.User = env.DatabaseUser
	}
	if env.DatabasePass != "" {
		c.Database.Password = env.DatabasePass
	}
	if env.DatabaseName != "" {
		c.Database.Name = env.DatabaseName
	}
	if env.SMTPHost != "" {
		c.Mail.Host = env.SMTPHost
	}
	if env.SMTPPassword != "" {
		c.Mail.Password = env.SMTPPassword
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region must be configured")
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for i, r := range c.Regions {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			return fmt.Errorf("regions[%d]: code is required", i)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("regions[%d]: duplicate region code %q", i, code)
		}
		seen[code] = struct{}{}
	}
	if c.Catalog.LowStockThreshold < 0 {
		return fmt.Errorf("catalog.low_stock_threshold must not be negative")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
