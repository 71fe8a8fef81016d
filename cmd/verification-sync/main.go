// Command verification-sync copies every doctor's verification status onto
// the public profile once and exits. It is meant to run as a scheduled job.
package main

import (
	"context"
	"os"

	"drxcare/internal/events"
	"drxcare/internal/verification/repository"
	"drxcare/internal/verification/service"
	"drxcare/internal/verification/validator"
	"drxcare/pkg/config"
	mongotx "drxcare/pkg/db/mongo"
	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/metrics"
)

const JobName = "verification-sync"

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()

	err := run(cfg)
	cfg.GracefulShutdown()
	if err != nil {
		appErr := apperrors.AsAppError(err)
		cfg.Log.Error("Verification sync failed",
			"code", appErr.Code,
			"details", appErr.Details,
			"error", err,
		)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	publisher, closePublisher, err := events.NewPublisher(cfg, cfg.VerificationEventsTopic, cfg.VerificationEventsDLQTopic, metrics.NewKafkaMetrics(nil))
	if err != nil {
		return err
	}
	defer closePublisher()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	svc := service.NewVerificationService(
		repository.NewMongoUserRepository(cfg),
		mongotx.NewBatchCommitter(db, mongotx.NewTransactionManager(cfg.Client.Mongo)),
		validator.NewVerificationValidator(cfg.Log),
		cfg,
		service.WithPublisher(publisher),
	)

	ctx, cancel := mongotx.WithTimeout(context.Background(), cfg.VerificationSyncTimeout)
	defer cancel()

	result, err := svc.SyncAll(ctx)
	if err != nil {
		return err
	}

	cfg.Log.Info("Verification sync completed",
		"updated_count", result.UpdatedCount,
		"batches", result.Batches,
		"skipped", result.Skipped,
	)
	return nil
}
