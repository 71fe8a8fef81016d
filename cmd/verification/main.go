package main

import (
	"drxcare/internal/events"
	"drxcare/internal/verification/handler"
	"drxcare/internal/verification/repository"
	"drxcare/internal/verification/service"
	"drxcare/internal/verification/validator"
	"drxcare/pkg/app"
	"drxcare/pkg/config"
	mongotx "drxcare/pkg/db/mongo"
	"drxcare/pkg/metrics"
)

const ServiceName = "verification"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Verification service")

	publisher, closePublisher, err := events.NewPublisher(cfg, cfg.VerificationEventsTopic, cfg.VerificationEventsDLQTopic, metrics.NewKafkaMetrics(nil))
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	verificationService := service.NewVerificationService(
		repository.NewMongoUserRepository(cfg),
		mongotx.NewBatchCommitter(db, mongotx.NewTransactionManager(cfg.Client.Mongo)),
		validator.NewVerificationValidator(cfg.Log),
		cfg,
		service.WithPublisher(publisher),
		service.WithMetrics(metrics.NewVerificationMetrics(nil)),
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewVerificationHandler(verificationService, cfg.Log))
	serverApp.OnShutdown(closePublisher)
	serverApp.Run()
}
