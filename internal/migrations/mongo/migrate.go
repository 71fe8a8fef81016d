package mongo

import (
	"context"
	"fmt"

	availabilityrepo "drxcare/internal/availability/repository"
	bookingsrepo "drxcare/internal/bookings/repository"
	"drxcare/internal/migrations/mongo/validators"
	verificationrepo "drxcare/internal/verification/repository"
	"drxcare/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// Overlap lookups filter on doctor and status and range over slot_start.
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "doctor_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "slot_start", Value: 1},
		}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "slot_start", Value: 1}}},
		{Keys: bson.D{{Key: "payment_intent_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	// Expired locks are collected by the server; acquisition also treats an
	// expired lock as free, since the TTL monitor runs only once a minute.
	BookingLocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}

	PublicProfilesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "verification", Value: 1}}},
	}

	PendingVerificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "requested_at", Value: 1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections returns every collection the services use, keyed by name.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		bookingsrepo.LockCollectionName: {
			Indexes:   BookingLocksIndexes,
			Validator: validators.BookingLockValidator,
		},
		availabilityrepo.CollectionName: {
			Indexes:   PublicProfilesIndexes,
			Validator: validators.PublicProfileValidator,
		},
		verificationrepo.UsersCollection: {
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
		verificationrepo.PendingCollection: {
			Indexes:   PendingVerificationsIndexes,
			Validator: validators.PendingVerificationValidator,
		},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
