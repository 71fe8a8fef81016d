package repository

import (
	"context"
	"fmt"
	"iter"

	"drxcare/pkg/config"
	mongotx "drxcare/pkg/db/mongo"
	"drxcare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection    = "Users"
	ProfilesCollection = "Public_profiles"
	PendingCollection  = "Pending_verifications"

	cursorBatchSize = mongotx.MaxBatchOps
)

type UserRepository interface {
	// StreamDoctors yields every user with role doctor. Iteration stops after
	// the first error.
	StreamDoctors(ctx context.Context) iter.Seq2[*model.User, error]
}

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		collection: db.Collection(UsersCollection),
	}
}

func (r *mongoUserRepository) StreamDoctors(ctx context.Context) iter.Seq2[*model.User, error] {
	return func(yield func(*model.User, error) bool) {
		opts := options.Find().
			SetProjection(bson.M{"role": 1, "verification": 1}).
			SetBatchSize(cursorBatchSize)

		cursor, err := r.collection.Find(ctx, bson.M{"role": model.RoleDoctor}, opts)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query doctors: %w", err))
			return
		}
		defer cursor.Close(context.WithoutCancel(ctx))

		for cursor.Next(ctx) {
			var user model.User
			if err := cursor.Decode(&user); err != nil {
				yield(nil, fmt.Errorf("failed to decode user: %w", err))
				return
			}
			if !yield(&user, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, fmt.Errorf("doctor cursor failed: %w", err))
		}
	}
}
