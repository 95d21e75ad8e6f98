package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/yashrajoria/freelance-marketplace/api-gateway/routes"
	"github.com/yashrajoria/freelance-marketplace/api-gateway/utils"
	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/services/common/auth"
	"github.com/yashrajoria/freelance-marketplace/services/common/logger"
	"github.com/yashrajoria/freelance-marketplace/services/common/server"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		logger.Initialize("development", serviceName).Fatal("Failed to load config", zap.Error(err))
	}

	log, flush := server.NewLogger(ctx, cfg.Env, serviceName)
	defer flush()

	log.Info("Starting API Gateway...")

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	r := server.NewRouter(ctx, server.Options{
		Service:         serviceName,
		Env:             cfg.Env,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
		AllowOrigins:    cfg.AllowOrigins,
	}, log, metricsClient)

	fwd := utils.NewForwarder(cfg.ProxyTimeout, log)
	routes.RegisterAllRoutes(r, fwd, auth.NewVerifier(cfg.JWTSecret), cfg.Upstreams)

	log.Info("API Gateway listening on port", zap.String("port", cfg.Port))
	if err := server.Serve(ctx, ":"+cfg.Port, r, log); err != nil {
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("API Gateway stopped")
}
