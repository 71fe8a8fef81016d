// Command reconciler consumes booking events and retries payment-hold
// cancellations that failed when their booking was canceled.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	availabilityrepo "drxcare/internal/availability/repository"
	"drxcare/internal/bookings/repository"
	"drxcare/internal/bookings/service"
	"drxcare/internal/bookings/validator"
	"drxcare/internal/reconciler"
	"drxcare/pkg/config"
	"drxcare/pkg/kafka"
	kafka_config "drxcare/pkg/kafka/config"
	kafka_middleware "drxcare/pkg/kafka/middleware"
	"drxcare/pkg/metrics"
	"drxcare/pkg/payment"
)

const ServiceName = "reconciler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	processor := payment.NewStripeClient(cfg.StripeSecretKey, cfg.Log).
		WithBaseURL(cfg.StripeBaseURL).
		WithAPIVersion(cfg.StripeAPIVersion).
		WithDryRun(cfg.StripeDryRun)

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingLockRepository(cfg),
		availabilityrepo.NewMongoProfileRepository(cfg),
		processor,
		validator.NewBookingValidator(cfg.Log),
		cfg,
		service.WithMetrics(metrics.NewBookingMetrics(nil)),
	)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.ReconcilerConsumerGroup,
		cfg.BookingEventsDLQTopic,
		reconciler.NewHandler(bookingService, cfg.Log).Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics.NewKafkaMetrics(nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting reconciler", "topic", cfg.BookingEventsTopic, "group_id", cfg.ReconcilerConsumerGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Reconciler stopped")
}
