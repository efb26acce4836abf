package config

import (
	"time"

	"github.com/martinsuhendra/manta/internal/adapter"
	"github.com/martinsuhendra/manta/pkg/config"
	"github.com/spf13/viper"
)

// ServiceName names the service in logs, health checks and the default database.
const ServiceName = "manta"

// PaymentConfig holds payment gateway settings.
type PaymentConfig struct {
	ServerKey string
	BaseURL   string
	Currency  string
	Breaker   adapter.BreakerSettings
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	TTL   time.Duration
}

// ServiceConfig holds all configuration for the membership service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	MigrationsPath string
	DBConfig       config.DatabaseConfig
	JWTConfig      config.JWTConfig
	KafkaEnabled   bool
	KafkaConfig    config.KafkaConfig
	RedisEnabled   bool
	RedisConfig    config.RedisConfig
	IdempotencyTTL time.Duration
	PaymentConfig  PaymentConfig
	RateLimit      RateLimitConfig
}

// Load reads configuration from environment variables and returns a ServiceConfig.
func Load() (*ServiceConfig, error) {
	v, err := config.Load(ServiceName)
	if err != nil {
		return nil, err
	}

	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("RATE_LIMIT_TTL", "10m")

	return &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:      config.LoadJWTConfig(v),
		KafkaEnabled:   v.GetBool("KAFKA_ENABLED"),
		KafkaConfig:    config.LoadKafkaConfig(v),
		RedisEnabled:   v.GetBool("REDIS_ENABLED"),
		RedisConfig:    config.LoadRedisConfig(v),
		IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		PaymentConfig:  loadPaymentConfig(v),
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
			TTL:   v.GetDuration("RATE_LIMIT_TTL"),
		},
	}, nil
}

// loadPaymentConfig extracts payment gateway configuration from Viper.
func loadPaymentConfig(v *viper.Viper) PaymentConfig {
	v.SetDefault("PAYMENT_BASE_URL", "https://app.sandbox.midtrans.com")
	v.SetDefault("PAYMENT_CURRENCY", "IDR")
	v.SetDefault("PAYMENT_BREAKER_FAILURES", 5)
	v.SetDefault("PAYMENT_BREAKER_TIMEOUT", "30s")
	v.SetDefault("PAYMENT_BREAKER_HALF_OPEN_REQUESTS", 1)

	return PaymentConfig{
		ServerKey: v.GetString("PAYMENT_SERVER_KEY"),
		BaseURL:   v.GetString("PAYMENT_BASE_URL"),
		Currency:  v.GetString("PAYMENT_CURRENCY"),
		Breaker: adapter.BreakerSettings{
			FailureThreshold: v.GetUint32("PAYMENT_BREAKER_FAILURES"),
			OpenTimeout:      v.GetDuration("PAYMENT_BREAKER_TIMEOUT"),
			HalfOpenRequests: v.GetUint32("PAYMENT_BREAKER_HALF_OPEN_REQUESTS"),
		},
	}
}
