package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "drxcare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStripeBaseURL    = "https://api.stripe.com"
	DefaultStripeAPIVersion = "2024-06-20"
	DefaultCurrency         = "usd"
	DefaultStripeTimeout    = 10 * time.Second

	// CreateHold makes at most this many sequential Stripe calls.
	StripeHoldCalls = 3

	DefaultSlotLockTTL                = 2 * time.Minute
	DefaultSlotLockWait               = 2 * time.Second
	DefaultMinConsultationDurationMin = 15

	// Firestore-compatible write batch ceiling; also keeps Mongo transactions small.
	MaxVerificationBatchSize       = 500
	DefaultVerificationBatchSize   = MaxVerificationBatchSize
	DefaultVerificationSyncTimeout = 1 * time.Hour

	DefaultBookingEventsTopic         = "booking-events"
	DefaultBookingEventsDLQTopic      = "booking-events-dlq"
	DefaultVerificationEventsTopic    = "verification-events"
	DefaultVerificationEventsDLQTopic = "verification-events-dlq"
	DefaultReconcilerConsumerGroup    = "booking-reconciler"

	DefaultTracingSampleRatio = 1.0
)
