package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/common/config"
	"github.com/yashrajoria/freelance-marketplace/services/common/database"
)

const serviceName = "review-service"

// Config holds all configuration for the review service.
type Config struct {
	Port               string
	Env                string
	Postgres           database.PostgresConfig
	Broker             broker.Config
	Relay              outbox.RelayConfig
	OrderServiceURL    string
	OrderClientTimeout time.Duration
	// RedisAddr empty disables the rating cache.
	RedisAddr       string
	RatingCacheTTL  time.Duration
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config.LoadDotEnv()

	cfg := &Config{
		Port:               config.GetEnv("PORT", "8084"),
		Env:                config.GetEnv("APP_ENV", "development"),
		Postgres:           config.PostgresFromEnv(),
		Broker:             config.BrokerFromEnv(),
		Relay:              config.RelayFromEnv(),
		OrderServiceURL:    config.GetEnv("ORDER_SERVICE_URL", "http://localhost:8082"),
		OrderClientTimeout: config.GetEnvDuration("ORDER_CLIENT_TIMEOUT", 5*time.Second),
		RedisAddr:          config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RatingCacheTTL:     config.GetEnvDuration("RATING_CACHE_TTL", 10*time.Minute),
		RequestTimeout:     config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitPerMin:    config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     config.GetEnvInt("RATE_LIMIT_BURST", 30),
	}

	if err := config.ApplyAWSSecrets(ctx, "review", &cfg.Postgres); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	if err := cfg.Postgres.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Broker.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
