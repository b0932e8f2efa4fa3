package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/booking-settlement/config"
	"github.com/Eursukkul/booking-settlement/internal/consumer"
	"github.com/Eursukkul/booking-settlement/internal/handler"
	"github.com/Eursukkul/booking-settlement/internal/metrics"
	"github.com/Eursukkul/booking-settlement/internal/middleware"
	"github.com/Eursukkul/booking-settlement/internal/provider"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/internal/worker"
	"github.com/Eursukkul/booking-settlement/pkg/database"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/Eursukkul/booking-settlement/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ: domain events out, payout commands in
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		log.WithError(err).Fatal("failed to connect publisher to RabbitMQ")
	}
	defer publisher.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.PayoutCommandQueue, consumer.RoutingPayoutExecute)
	if err != nil {
		log.WithError(err).Fatal("failed to connect consumer to RabbitMQ")
	}

	// Payment provider
	omiseClient, err := provider.NewOmiseClient(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	if err != nil {
		log.WithError(err).Fatal("failed to create Omise client")
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	cancellationRepo := repository.NewCancellationRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	retentionRepo := repository.NewRetentionRepository(db)
	payeeRepo := repository.NewPayeeRepository(db)

	// Services
	m := metrics.Default()
	cancellationSvc := service.NewCancellationService(bookingRepo, cancellationRepo, publisher, m)
	refundSvc := service.NewRefundService(cancellationRepo, executionRepo, provider.NewOmiseRefundProvider(omiseClient), publisher, m)
	payoutSvc := service.NewPayoutService(
		payoutRepo,
		bookingRepo,
		retentionRepo,
		provider.NewOmiseTransferProvider(omiseClient, payeeRepo, cfg.OmiseCurrency),
		publisher,
		m,
	)

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.WithError(err).Fatal("failed to start consuming")
	}
	// In-flight payouts are not cut short by shutdown
	consumerDone := consumer.NewPayoutConsumer(payoutSvc).Start(context.WithoutCancel(ctx), msgs)

	go worker.NewStalePayoutWorker(payoutSvc, cfg.ReaperInterval, cfg.PayoutLockTTL).Start(ctx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(middleware.RequestLogger(logger.For("http")))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "settlement-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", middleware.JWTAuth(cfg.JWTSecret))
	handler.NewCancellationHandler(cancellationSvc).RegisterRoutes(api)
	handler.NewRefundHandler(refundSvc).RegisterRoutes(api)
	handler.NewPayoutHandler(payoutSvc).RegisterRoutes(api)

	go func() {
		log.WithField("port", cfg.ServerPort).Info("settlement service starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}

	if err := mqConsumer.Stop(); err != nil {
		log.WithError(err).Warn("cancel payout subscription")
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("payout consumer still busy at shutdown")
	}
	mqConsumer.Close()
}
