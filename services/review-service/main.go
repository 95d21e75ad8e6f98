package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/common/database"
	"github.com/yashrajoria/freelance-marketplace/services/common/logger"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/common/server"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/cache"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/controllers"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/routes"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/services"

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

	db, err := database.ConnectPostgres(ctx, cfg.Postgres, log,
		&models.Review{}, &models.ProviderRating{}, &outbox.Record{})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	conn, err := broker.Open(ctx, cfg.Broker, log)
	if err != nil {
		log.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer conn.Close() //nolint:errcheck

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	var ratings cache.RatingCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis unavailable, serving ratings from the database", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			ratings = cache.NewRedisRatingCache(redisClient, cfg.RatingCacheTTL)
		}
	}

	reviewRepo := repository.NewGormReviewRepo(db)
	orders := orderclient.New(cfg.OrderServiceURL, cfg.OrderClientTimeout, log)
	reviewService := services.NewReviewService(reviewRepo, orders, ratings, metricsClient, log)
	reviewController := controllers.NewReviewController(reviewService)

	var workers sync.WaitGroup
	relay := outbox.NewRelay(db, conn, log, cfg.Relay)
	workers.Add(1)
	go func() {
		defer workers.Done()
		relay.Run(ctx)
	}()

	r := server.NewRouter(ctx, server.Options{
		Service:         serviceName,
		Env:             cfg.Env,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, log, metricsClient)
	routes.RegisterReviewRoutes(r, reviewController)

	log.Info("Review service started", zap.String("port", cfg.Port), zap.Bool("rating_cache", ratings != nil))
	if err := server.Serve(ctx, ":"+cfg.Port, r, log); err != nil {
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	workers.Wait()
	log.Info("Review service stopped")
}
