package main

import (
	"errors"
	"time"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/services/common/config"
)

const serviceName = "notification-service"

// Config holds all configuration for the notification service.
type Config struct {
	Port            string
	Env             string
	MongoURI        string
	MongoDB         string
	Broker          broker.Config
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
}

func LoadConfig() (*Config, error) {
	config.LoadDotEnv()

	cfg := &Config{
		Port:            config.GetEnv("PORT", "8085"),
		Env:             config.GetEnv("APP_ENV", "development"),
		MongoURI:        config.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         config.GetEnv("MONGO_DB", "notification_db"),
		Broker:          config.BrokerFromEnv(),
		RequestTimeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitPerMin: config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:  config.GetEnvInt("RATE_LIMIT_BURST", 30),
	}

	if cfg.MongoURI == "" || cfg.MongoDB == "" {
		return nil, errors.New("MONGO_URI and MONGO_DB are required")
	}
	if err := cfg.Broker.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
