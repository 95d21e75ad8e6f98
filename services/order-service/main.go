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
	"github.com/yashrajoria/freelance-marketplace/services/common/server"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/controllers"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/routes"
	servicepkg "github.com/yashrajoria/freelance-marketplace/services/order-service/services"

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

	db, err := database.ConnectPostgres(ctx, cfg.Postgres, log, &models.Order{}, &outbox.Record{})
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

	// Dependency injection
	orderRepo := repository.NewGormOrderRepository(db)
	orderService := servicepkg.NewOrderService(orderRepo, metricsClient, log)
	orderController := controllers.NewOrderController(orderService)

	var workers sync.WaitGroup
	relay := outbox.NewRelay(db, conn, log, cfg.Relay)
	workers.Add(2)
	go func() {
		defer workers.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		servicepkg.NewPaymentConsumer(orderService, log).Start(ctx, conn)
	}()

	r := server.NewRouter(ctx, server.Options{
		Service:         serviceName,
		Env:             cfg.Env,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, log, metricsClient)
	routes.RegisterOrderRoutes(r, orderController)

	log.Info("Order service started", zap.String("port", cfg.Port), zap.String("broker", cfg.Broker.Driver))
	if err := server.Serve(ctx, ":"+cfg.Port, r, log); err != nil {
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	// consumers and relay observe ctx; wait for in-flight work before closing
	workers.Wait()
	log.Info("Order service stopped")
}
