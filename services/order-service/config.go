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

const serviceName = "order-service"

// Config holds all configuration for the order service.
type Config struct {
	Port            string
	Env             string
	Postgres        database.PostgresConfig
	Broker          broker.Config
	Relay           outbox.RelayConfig
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
}

// LoadConfig reads configuration from the environment, with an optional
// Secrets Manager overlay for the database credentials.
func LoadConfig(ctx context.Context) (*Config, error) {
	config.LoadDotEnv()

	cfg := &Config{
		Port:            config.GetEnv("PORT", "8082"),
		Env:             config.GetEnv("APP_ENV", "development"),
		Postgres:        config.PostgresFromEnv(),
		Broker:          config.BrokerFromEnv(),
		Relay:           config.RelayFromEnv(),
		RequestTimeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitPerMin: config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:  config.GetEnvInt("RATE_LIMIT_BURST", 30),
	}

	if err := config.ApplyAWSSecrets(ctx, "order", &cfg.Postgres); err != nil {
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
