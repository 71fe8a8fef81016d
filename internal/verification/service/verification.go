package service

import (
	"context"
	"errors"
	"iter"
	"time"

	"drxcare/internal/verification/repository"
	"drxcare/internal/verification/validator"
	"drxcare/pkg/config"
	mongotx "drxcare/pkg/db/mongo"
	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/kafka"
	"drxcare/pkg/metrics"
	"drxcare/pkg/middleware"
	"drxcare/pkg/model"
	"drxcare/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

const eventSource = "verification"

type VerificationService interface {
	// SyncAll copies every doctor's verification status onto the public
	// profile, committing in batches. Batches already committed when a later
	// one fails stay committed.
	SyncAll(ctx context.Context) (*model.SyncResult, error)
	// UpdateStatus changes one user's status on the user record and the public
	// profile and deletes the pending marker, all in a single atomic batch.
	// The marker is deleted for every status, pending included.
	UpdateStatus(ctx context.Context, userID, status string) (*model.StatusUpdateResult, error)
}

type Option func(*verificationService)

func WithPublisher(p kafka.Publisher) Option {
	return func(s *verificationService) { s.publisher = p }
}

func WithMetrics(m *metrics.VerificationMetrics) Option {
	return func(s *verificationService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *verificationService) { s.now = now }
}

type verificationService struct {
	users     repository.UserRepository
	committer mongotx.BatchCommitter
	validator *validator.VerificationValidator
	publisher kafka.Publisher
	metrics   *metrics.VerificationMetrics
	batchSize int
	now       func() time.Time
	cfg       *config.Config
}

func NewVerificationService(
	users repository.UserRepository,
	committer mongotx.BatchCommitter,
	validator *validator.VerificationValidator,
	cfg *config.Config,
	opts ...Option,
) VerificationService {
	size := cfg.VerificationBatchSize
	if size <= 0 || size > mongotx.MaxBatchOps {
		size = mongotx.MaxBatchOps
	}

	s := &verificationService{
		users:     users,
		committer: committer,
		validator: validator,
		publisher: kafka.NopPublisher{},
		batchSize: size,
		now:       time.Now,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// chunk is one staged batch plus the users passed over while filling it.
type chunk struct {
	batch   *mongotx.Batch
	skipped int
}

// batches folds the doctor stream into merge batches of at most size
// writes. A batch is yielded as soon as it is full and the remainder at the
// end; the consumer commits each one before the next is built.
func batches(users iter.Seq2[*model.User, error], size int) iter.Seq2[chunk, error] {
	return func(yield func(chunk, error) bool) {
		current := chunk{batch: mongotx.NewBatch()}

		for user, err := range users {
			if err != nil {
				yield(chunk{}, err)
				return
			}
			if !user.HasVerification() {
				current.skipped++
				continue
			}

			current.batch.Merge(repository.ProfilesCollection, user.ID, bson.M{
				"verification": *user.Verification,
			})
			if current.batch.Len() >= size {
				if !yield(current, nil) {
					return
				}
				current = chunk{batch: mongotx.NewBatch()}
			}
		}

		if current.batch.Len() > 0 || current.skipped > 0 {
			yield(current, nil)
		}
	}
}

func (s *verificationService) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveSyncDuration(time.Since(started).Seconds()) }()

	result := &model.SyncResult{}
	s.cfg.Log.Info("Verification sync started", "batch_size", s.batchSize)

	for c, err := range batches(s.users.StreamDoctors(ctx), s.batchSize) {
		if err != nil {
			s.cfg.Log.Error("Verification sync aborted while reading users",
				"committed", result.UpdatedCount,
				"error", err,
			)
			return result, apperrors.Internal("Failed to read doctor users", err).
				WithDetails(map[string]any{"committed": result.UpdatedCount})
		}

		result.Skipped += c.skipped
		if c.batch.Len() == 0 {
			continue
		}

		commitErr := s.committer.Commit(ctx, c.batch)
		s.metrics.ObserveBatch(c.batch.Len(), commitErr)
		if commitErr != nil {
			s.cfg.Log.Error("Verification sync batch failed",
				"batch", result.Batches+1,
				"size", c.batch.Len(),
				"committed", result.UpdatedCount,
				"error", commitErr,
			)
			return result, apperrors.BatchCommitFailed(result.UpdatedCount, commitErr)
		}

		result.Batches++
		result.UpdatedCount += c.batch.Len()
		s.cfg.Log.Debug("Verification sync batch committed",
			"batch", result.Batches,
			"size", c.batch.Len(),
		)
	}

	s.cfg.Log.Info("Verification sync finished",
		"updated_count", result.UpdatedCount,
		"batches", result.Batches,
		"skipped", result.Skipped,
		"duration", time.Since(started),
	)
	s.publish(ctx, kafka.EventVerificationSynced, "", kafka.VerificationSyncedEvent{
		UpdatedCount: result.UpdatedCount,
		Batches:      result.Batches,
		Skipped:      result.Skipped,
		OccurredAt:   s.now().UTC(),
	})
	return result, nil
}

func (s *verificationService) UpdateStatus(ctx context.Context, userID, status string) (*model.StatusUpdateResult, error) {
	userID = sanitizer.SanitizeID(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	if !s.validator.ValidStatus(status) {
		s.metrics.ObserveStatusUpdate("invalid", "invalid_status")
		return nil, apperrors.InvalidStatus(status)
	}
	newStatus := model.VerificationStatus(status)

	batch := mongotx.NewBatch().
		Update(repository.UsersCollection, userID, bson.M{"verification": newStatus}).
		Merge(repository.ProfilesCollection, userID, bson.M{"verification": newStatus}).
		Delete(repository.PendingCollection, userID)

	if err := s.committer.Commit(ctx, batch); err != nil {
		if errors.Is(err, mongotx.ErrDocumentNotFound) {
			s.metrics.ObserveStatusUpdate(status, "not_found")
			return nil, apperrors.NotFoundWithID("User", userID)
		}
		s.cfg.Log.Error("Failed to update verification status",
			"user_id", userID,
			"status", status,
			"error", err,
		)
		s.metrics.ObserveStatusUpdate(status, "error")
		return nil, apperrors.Internal("Failed to update verification status", err)
	}

	s.cfg.Log.Info("Verification status updated", "user_id", userID, "status", status)
	s.metrics.ObserveStatusUpdate(status, "success")
	s.publish(ctx, kafka.EventVerificationUpdated, userID, kafka.VerificationUpdatedEvent{
		UserID:     userID,
		Status:     status,
		OccurredAt: s.now().UTC(),
	})

	return &model.StatusUpdateResult{Success: true, UserID: userID, Status: newStatus}, nil
}

func (s *verificationService) publish(ctx context.Context, eventType, key string, event any) {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventType(eventType).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(kafka.SchemaVersion).
		WithSource(eventSource).
		Build()
	if err != nil {
		s.cfg.Log.Error("Failed to build verification event", "event_type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Error("Failed to publish verification event", "event_type", eventType, "error", err)
	}
}
