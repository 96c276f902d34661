package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Persistence selects where the cart snapshot is mirrored.
type Persistence struct {
	Backend   string        `yaml:"backend" env:"PERSISTENCE_BACKEND" env-default:"memory"`
	Namespace string        `yaml:"namespace" env:"PERSISTENCE_NAMESPACE" env-default:"cart-storage"`
	TTL       time.Duration `yaml:"ttl" env:"PERSISTENCE_TTL" env-default:"0s"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	KeyPrefix  string        `yaml:"key_prefix" env:"CACHE_KEY_PREFIX"`
}

// RateLimit bounds cart writes and checkout per user. It needs Redis.
type RateLimit struct {
	Enabled     bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"false"`
	MaxRequests int64         `yaml:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS" env-default:"30"`
	Window      time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

// Catalog points at the remote product and user API.
type Catalog struct {
	BaseURL string        `yaml:"BASE_URL" env:"CATALOG_BASE_URL" env-default:"https://dummyjson.com"`
	Timeout time.Duration `yaml:"TIMEOUT" env:"CATALOG_TIMEOUT" env-default:"10s"`
}

type Checkout struct {
	RetryAttempts int           `yaml:"RETRY_ATTEMPTS" env:"CHECKOUT_RETRY_ATTEMPTS" env-default:"3"`
	RetryInterval time.Duration `yaml:"RETRY_INTERVAL" env:"CHECKOUT_RETRY_INTERVAL" env-default:"1s"`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY"`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"orders@storefront.local"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
}

type OTel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront-cart"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env          string       `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   HTTPServer   `yaml:"http_server"`
	Persistence  Persistence  `yaml:"persistence"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Cache        CacheConfig  `yaml:"cache"`
	RateLimit    RateLimit    `yaml:"rate_limit"`
	Security     Security     `yaml:"security"`
	Catalog      Catalog      `yaml:"catalog"`
	Checkout     Checkout     `yaml:"checkout"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	OTel         OTel         `yaml:"otel"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "path to the config file")
		flag.Parse()

		configPath = *flags
	}

	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not load config: %s", err.Error())
	}

	return cfg
}

func LoadConfigFromPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that depend on the selected backend.
func (c *Config) Validate() error {
	switch c.Persistence.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisConnect.Host == "" {
			return errors.New("redis backend selected but REDIS_HOST is empty")
		}
	case BackendPostgres:
		if c.Database.User == "" || c.Database.Name == "" {
			return errors.New("postgres backend selected but PG_USER or PG_DBNAME is empty")
		}
	default:
		return fmt.Errorf("unknown persistence backend %q", c.Persistence.Backend)
	}

	if c.Persistence.Namespace == "" {
		return errors.New("persistence namespace cannot be empty")
	}

	if c.Checkout.RetryAttempts < 1 {
		return errors.New("checkout retry attempts must be at least 1")
	}

	if c.RateLimit.Enabled {
		if c.RedisConnect.Host == "" {
			return errors.New("rate limiting enabled but REDIS_HOST is empty")
		}

		if c.RateLimit.MaxRequests < 1 || c.RateLimit.Window <= 0 {
			return errors.New("rate limit needs max_requests >= 1 and a positive window")
		}
	}

	return nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
