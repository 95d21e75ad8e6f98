// Package server holds the HTTP and logging bootstrap shared by the services.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/logger"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Service         string
	Env             string
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RateLimitBurst  int
	AllowOrigins    []string
}

// NewLogger builds the service logger, teeing to CloudWatch Logs when enabled.
// The returned func flushes both sinks.
func NewLogger(ctx context.Context, env, service string) (*zap.Logger, func()) {
	var sink io.Writer
	shipper, err := awspkg.NewLogShipper(ctx, service)
	if err != nil {
		logger.Initialize(env, service).Warn("CloudWatch Logs unavailable", zap.Error(err))
	} else if shipper != nil {
		sink = shipper
	}
	log := logger.InitializeWithWriter(env, service, sink)
	return log, func() {
		_ = log.Sync()
		if shipper != nil {
			shipper.Close()
		}
	}
}

// NewRouter returns a gin engine with the common middleware chain plus
// /health and /metrics.
func NewRouter(ctx context.Context, opts Options, log *zap.Logger, metrics *awspkg.MetricsClient) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"http://localhost:3000"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.MetricsMiddleware(metrics, opts.Service))
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimitMiddleware(ctx, opts.RateLimitPerMin, opts.RateLimitBurst))
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": opts.Service})
	})
	r.GET("/metrics", middleware.MetricsHandler())
	return r
}

// Serve runs the server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("HTTP server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
