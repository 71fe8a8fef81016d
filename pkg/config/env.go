package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStripeSecretKey  = "STRIPE_SECRET_KEY"
	EnvStripeBaseURL    = "STRIPE_BASE_URL"
	EnvStripeAPIVersion = "STRIPE_API_VERSION"
	EnvStripeDryRun     = "STRIPE_DRY_RUN"
	EnvStripeTimeout    = "STRIPE_TIMEOUT"
	EnvDefaultCurrency  = "DEFAULT_CURRENCY"

	EnvSlotLockTTL                = "SLOT_LOCK_TTL"
	EnvSlotLockWait               = "SLOT_LOCK_WAIT"
	EnvMinConsultationDurationMin = "MIN_CONSULTATION_DURATION_MIN"

	EnvVerificationBatchSize   = "VERIFICATION_BATCH_SIZE"
	EnvVerificationSyncTimeout = "VERIFICATION_SYNC_TIMEOUT"

	EnvEventsEnabled              = "EVENTS_ENABLED"
	EnvBookingEventsTopic         = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQTopic      = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvVerificationEventsTopic    = "VERIFICATION_EVENTS_TOPIC"
	EnvVerificationEventsDLQTopic = "VERIFICATION_EVENTS_DLQ_TOPIC"
	EnvReconcilerConsumerGroup    = "RECONCILER_CONSUMER_GROUP"

	EnvTracingEnabled     = "TRACING_ENABLED"
	EnvTracingSampleRatio = "TRACING_SAMPLE_RATIO"
)
