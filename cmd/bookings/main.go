package main

import (
	"os"

	"drxcare/internal/availability/calculator"
	availabilityhandler "drxcare/internal/availability/handler"
	availabilityrepo "drxcare/internal/availability/repository"
	availabilityservice "drxcare/internal/availability/service"
	availabilityvalidator "drxcare/internal/availability/validator"
	"drxcare/internal/bookings/handler"
	"drxcare/internal/bookings/repository"
	"drxcare/internal/bookings/service"
	"drxcare/internal/bookings/validator"
	"drxcare/internal/events"
	"drxcare/pkg/app"
	"drxcare/pkg/config"
	"drxcare/pkg/metrics"
	"drxcare/pkg/payment"
	"drxcare/pkg/tracing"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")

	stopTracing, err := tracing.Setup(cfg, ServiceName, os.Stdout)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)
	publisher, closePublisher, err := events.NewPublisher(cfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic, metrics.NewKafkaMetrics(nil))
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	profiles := availabilityrepo.NewMongoProfileRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg)

	processor := payment.NewStripeClient(cfg.StripeSecretKey, cfg.Log).
		WithBaseURL(cfg.StripeBaseURL).
		WithAPIVersion(cfg.StripeAPIVersion).
		WithTimeout(cfg.StripeTimeout).
		WithDryRun(cfg.StripeDryRun)

	bookingService := service.NewBookingService(
		bookingRepo,
		repository.NewBookingLockRepository(cfg),
		profiles,
		processor,
		validator.NewBookingValidator(cfg.Log),
		cfg,
		service.WithPublisher(publisher),
		service.WithMetrics(bookingMetrics),
	)

	availabilityService := availabilityservice.NewAvailabilityService(
		profiles,
		bookingRepo,
		calculator.New(calculator.WithMinDuration(cfg.MinConsultationDurationMin)),
		availabilityvalidator.NewProfileValidator(cfg.MinConsultationDurationMin, cfg.Log),
		bookingMetrics,
		cfg,
	)

	cfg.Log.Info("Booking services initialized",
		"database", cfg.MongoDatabaseName,
		"stripe_dry_run", cfg.StripeDryRun,
		"events_enabled", cfg.EventsEnabled,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
	)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(stopTracing)
	serverApp.Run()
}
