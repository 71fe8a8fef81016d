package repository

import (
	"context"
	"errors"
	"fmt"

	availabilityerrors "drxcare/internal/availability/errors"
	"drxcare/pkg/config"
	mongotx "drxcare/pkg/db/mongo"
	"drxcare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Public_profiles"

type ProfileRepository interface {
	FindByID(ctx context.Context, doctorID string) (*model.DoctorProfile, error)
}

type mongoProfileRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProfileRepository(cfg *config.Config) ProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfileRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProfileRepository) FindByID(ctx context.Context, doctorID string) (*model.DoctorProfile, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{
		"display_name":              1,
		"time_zone":                 1,
		"consultation_duration_min": 1,
		"consultation_price":        1,
		"currency":                  1,
		"availability":              1,
		"verification":              1,
	})

	var profile model.DoctorProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": doctorID}, opts).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find doctor profile: %w", err)
	}
	return &profile, nil
}
