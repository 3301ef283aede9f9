// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Env  string `env:"APP_ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"8080" validate:"required,numeric"`

	DB       DBConfig
	Webhook  WebhookConfig
	Provider ProviderConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
}

// DBConfig holds the postgres connection and pool settings.
type DBConfig struct {
	Host            string        `env:"DB_HOST" env-default:"localhost" validate:"required"`
	Port            string        `env:"DB_PORT" env-default:"5432" validate:"required,numeric"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `env:"DB_NAME" env-default:"payhook" validate:"required"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20" validate:"gte=1"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" env-default:"10m"`
	OpTimeout       time.Duration `env:"DB_OP_TIMEOUT" env-default:"5s" validate:"gt=0"`
	RunMigrations   bool          `env:"DB_RUN_MIGRATIONS" env-default:"true"`
}

// DSN renders the key/value connection string understood by the postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// WebhookConfig configures inbound notification verification.
type WebhookConfig struct {
	Secret          string        `env:"WEBHOOK_SECRET"`
	Token           string        `env:"WEBHOOK_TOKEN"`
	TokenParam      string        `env:"WEBHOOK_TOKEN_PARAM" env-default:"token"`
	SignatureHeader string        `env:"WEBHOOK_SIGNATURE_HEADER" env-default:"X-Signature"`
	RequestIDHeader string        `env:"WEBHOOK_REQUEST_ID_HEADER" env-default:"X-Request-Id"`
	AllowUnsigned   bool          `env:"WEBHOOK_ALLOW_UNSIGNED" env-default:"false"`
	ReplayWindow    time.Duration `env:"WEBHOOK_REPLAY_WINDOW" env-default:"300s"`
}

// ProviderConfig configures the payment provider read API.
type ProviderConfig struct {
	BaseURL     string        `env:"PROVIDER_BASE_URL" env-default:"https://api.mercadopago.com" validate:"required,url"`
	AccessToken string        `env:"PROVIDER_ACCESS_TOKEN"`
	Timeout     time.Duration `env:"PROVIDER_TIMEOUT" env-default:"10s" validate:"gt=0"`
	MaxConns    int           `env:"PROVIDER_MAX_CONNS" env-default:"32" validate:"gte=1"`
}

// KafkaConfig configures the settlement notification sink. No brokers means
// notifications are only logged.
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" env-separator:","`
	Topic        string        `env:"KAFKA_TOPIC" env-default:"payment-settlements"`
	Username     string        `env:"KAFKA_USERNAME"`
	Password     string        `env:"KAFKA_PASSWORD"`
	Mechanism    string        `env:"KAFKA_MECHANISM" env-default:"scram-sha-512" validate:"omitempty,oneof=plain scram-sha-256 scram-sha-512"`
	TLSEnabled   bool          `env:"KAFKA_TLS" env-default:"true"`
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" env-default:"5s"`
}

// RedisConfig configures the shared request-id cache. An empty host keeps
// the cache in process memory.
type RedisConfig struct {
	Host      string        `env:"REDIS_HOST"`
	Port      string        `env:"REDIS_PORT" env-default:"6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" env-default:"0"`
	CacheSize int           `env:"IDEMPOTENCY_CACHE_SIZE" env-default:"10000" validate:"gte=1"`
	TTL       time.Duration `env:"IDEMPOTENCY_TTL" env-default:"10m"`
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
