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
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/controllers"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/routes"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/services"

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
		&models.Payment{}, &models.Transaction{}, &models.Refund{}, &outbox.Record{})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	// the payment service only publishes; the connection feeds the relay
	conn, err := broker.Open(ctx, cfg.Broker, log)
	if err != nil {
		log.Fatal("Failed to connect to broker", zap.Error(err))
	}
	defer conn.Close() //nolint:errcheck

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	paymentRepo := repository.NewGormPaymentRepo(db)
	orders := orderclient.New(cfg.OrderServiceURL, cfg.OrderClientTimeout, log)
	paymentService := services.NewPaymentService(paymentRepo, orders, metricsClient, log)
	paymentController := controllers.NewPaymentController(paymentService)

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
	routes.RegisterPaymentRoutes(r, paymentController)

	log.Info("Payment service started", zap.String("port", cfg.Port))
	if err := server.Serve(ctx, ":"+cfg.Port, r, log); err != nil {
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	workers.Wait()
	log.Info("Payment service stopped")
}
