package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/freelance-marketplace/api-gateway/routes"
	"github.com/yashrajoria/freelance-marketplace/services/common/config"
)

const serviceName = "api-gateway"

// Config holds all configuration for the gateway.
type Config struct {
	Port            string
	Env             string
	JWTSecret       string
	Upstreams       routes.Upstreams
	ProxyTimeout    time.Duration
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
	AllowOrigins    []string
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config.LoadDotEnv()

	cfg := &Config{
		Port:      config.GetEnv("PORT", "8080"),
		Env:       config.GetEnv("APP_ENV", "development"),
		JWTSecret: config.GetEnv("JWT_SECRET", ""),
		Upstreams: routes.Upstreams{
			Auth:         config.GetEnv("AUTH_SERVICE_URL", ""),
			Order:        config.GetEnv("ORDER_SERVICE_URL", "http://order-service:8082"),
			Payment:      config.GetEnv("PAYMENT_SERVICE_URL", "http://payment-service:8083"),
			Review:       config.GetEnv("REVIEW_SERVICE_URL", "http://review-service:8084"),
			Notification: config.GetEnv("NOTIFICATION_SERVICE_URL", "http://notification-service:8085"),
		},
		ProxyTimeout:    config.GetEnvDuration("PROXY_TIMEOUT", 15*time.Second),
		RequestTimeout:  config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimitPerMin: config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:  config.GetEnvInt("RATE_LIMIT_BURST", 20),
		AllowOrigins:    config.GetEnvList("CORS_ALLOW_ORIGINS"),
	}

	if err := config.ApplyAWSStringSecret(ctx, "gateway/JWT_SECRET", &cfg.JWTSecret); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
