package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/services/common/logger"
	"github.com/yashrajoria/freelance-marketplace/services/common/server"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/controllers"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/database"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/routes"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/services"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Initialize("development", serviceName).Fatal("Failed to load config", zap.Error(err))
	}

	log, flush := server.NewLogger(ctx, cfg.Env, serviceName)
	defer flush()

	mongoClient, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.DisconnectMongo(mongoClient) //nolint:errcheck

	inboxRepo := repository.NewMongoInboxRepo(db)
	if err := inboxRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create inbox indexes", zap.Error(err))
	}

	conn, err := broker.Open(ctx, cfg.Broker, log)
	if err != nil {
		log.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer conn.Close() //nolint:errcheck

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	notificationService := services.NewNotificationService(inboxRepo, conn, metricsClient, log)
	inboxController := controllers.NewInboxController(notificationService)

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		services.NewFanoutConsumer(notificationService, log).Start(ctx, conn)
	}()

	r := server.NewRouter(ctx, server.Options{
		Service:         serviceName,
		Env:             cfg.Env,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, log, metricsClient)
	routes.RegisterNotificationRoutes(r, inboxController)

	log.Info("Notification service started", zap.String("port", cfg.Port), zap.String("broker", cfg.Broker.Driver))
	if err := server.Serve(ctx, ":"+cfg.Port, r, log); err != nil {
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	workers.Wait()
	log.Info("Notification service stopped")
}
