package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"drxcare/pkg/client"
	"drxcare/pkg/logger"

	"github.com/joho/godotenv"
)

var (
	reMongoURI      = regexp.MustCompile(`^mongodb(\+srv)?://`)
	reMongoCreds    = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	reCurrency      = regexp.MustCompile(`^[a-z]{3}$`)
	reStripeVersion = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StripeSecretKey  string
	StripeBaseURL    string
	StripeAPIVersion string
	StripeDryRun     bool
	StripeTimeout    time.Duration
	DefaultCurrency  string

	SlotLockTTL                time.Duration
	SlotLockWait               time.Duration
	MinConsultationDurationMin int

	VerificationBatchSize   int
	VerificationSyncTimeout time.Duration

	EventsEnabled              bool
	BookingEventsTopic         string
	BookingEventsDLQTopic      string
	VerificationEventsTopic    string
	VerificationEventsDLQTopic string
	ReconcilerConsumerGroup    string

	TracingEnabled     bool
	TracingSampleRatio float64

	Log    *logger.Logger
	Client *client.Client
}

// Load reads configuration from the environment, falling back to a local .env
// file when present. It exits the process if validation fails.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config without a logger or client attached.
func FromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		StripeSecretKey:  getEnvStr(EnvStripeSecretKey, ""),
		StripeBaseURL:    getEnvStr(EnvStripeBaseURL, DefaultStripeBaseURL),
		StripeAPIVersion: getEnvStr(EnvStripeAPIVersion, DefaultStripeAPIVersion),
		StripeDryRun:     getEnvBool(EnvStripeDryRun, false),
		StripeTimeout:    getEnvDuration(EnvStripeTimeout, DefaultStripeTimeout),
		DefaultCurrency:  strings.ToLower(getEnvStr(EnvDefaultCurrency, DefaultCurrency)),

		SlotLockTTL:                getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),
		SlotLockWait:               getEnvDuration(EnvSlotLockWait, DefaultSlotLockWait),
		MinConsultationDurationMin: getEnvNum(EnvMinConsultationDurationMin, DefaultMinConsultationDurationMin),

		VerificationBatchSize:   getEnvNum(EnvVerificationBatchSize, DefaultVerificationBatchSize),
		VerificationSyncTimeout: getEnvDuration(EnvVerificationSyncTimeout, DefaultVerificationSyncTimeout),

		EventsEnabled:              getEnvBool(EnvEventsEnabled, false),
		BookingEventsTopic:         getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQTopic:      getEnvStr(EnvBookingEventsDLQTopic, DefaultBookingEventsDLQTopic),
		VerificationEventsTopic:    getEnvStr(EnvVerificationEventsTopic, DefaultVerificationEventsTopic),
		VerificationEventsDLQTopic: getEnvStr(EnvVerificationEventsDLQTopic, DefaultVerificationEventsDLQTopic),
		ReconcilerConsumerGroup:    getEnvStr(EnvReconcilerConsumerGroup, DefaultReconcilerConsumerGroup),

		TracingEnabled:     getEnvBool(EnvTracingEnabled, false),
		TracingSampleRatio: getEnvFloat(EnvTracingSampleRatio, DefaultTracingSampleRatio),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis not configured, using in-memory stores")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !reMongoURI.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"SlotLockTTL", cfg.SlotLockTTL},
		{"StripeTimeout", cfg.StripeTimeout},
		{"VerificationSyncTimeout", cfg.VerificationSyncTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.SlotLockWait < 0 {
		errors = append(errors, fmt.Sprintf("SlotLockWait cannot be negative, got: %s", cfg.SlotLockWait))
	}
	if worst := cfg.HoldCriticalSection(); cfg.SlotLockTTL > 0 && cfg.SlotLockTTL <= worst {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must exceed the worst-case hold duration of %s, got: %s", worst, cfg.SlotLockTTL))
	}

	if cfg.TracingSampleRatio < 0 || cfg.TracingSampleRatio > 1 {
		errors = append(errors, fmt.Sprintf("TracingSampleRatio must be between 0 and 1, got: %g", cfg.TracingSampleRatio))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if !cfg.StripeDryRun && cfg.StripeSecretKey == "" {
		errors = append(errors, "StripeSecretKey is required unless STRIPE_DRY_RUN is enabled")
	}
	if cfg.StripeBaseURL == "" {
		errors = append(errors, "StripeBaseURL cannot be empty")
	}
	if !reStripeVersion.MatchString(cfg.StripeAPIVersion) {
		errors = append(errors, fmt.Sprintf("StripeAPIVersion must look like YYYY-MM-DD, got: %s", cfg.StripeAPIVersion))
	}
	if !reCurrency.MatchString(cfg.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("DefaultCurrency must be a 3-letter ISO code, got: %s", cfg.DefaultCurrency))
	}

	if cfg.MinConsultationDurationMin < DefaultMinConsultationDurationMin {
		errors = append(errors, fmt.Sprintf("MinConsultationDurationMin must be at least %d, got: %d", DefaultMinConsultationDurationMin, cfg.MinConsultationDurationMin))
	}
	if cfg.VerificationBatchSize <= 0 || cfg.VerificationBatchSize > MaxVerificationBatchSize {
		errors = append(errors, fmt.Sprintf("VerificationBatchSize must be between 1 and %d, got: %d", MaxVerificationBatchSize, cfg.VerificationBatchSize))
	}

	if cfg.EventsEnabled {
		if cfg.BookingEventsTopic == "" {
			errors = append(errors, "BookingEventsTopic cannot be empty when events are enabled")
		}
		if cfg.VerificationEventsTopic == "" {
			errors = append(errors, "VerificationEventsTopic cannot be empty when events are enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// HoldCriticalSection is the longest an open hold can keep its slot lock:
// the lock write, the overlap read, every Stripe call of CreateHold and the
// booking write.
func (cfg *Config) HoldCriticalSection() time.Duration {
	return 2*cfg.WriteTimeout + cfg.ReadTimeout + StripeHoldCalls*cfg.StripeTimeout
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"stripe_secret_set", cfg.StripeSecretKey != "",
		"stripe_base_url", cfg.StripeBaseURL,
		"stripe_api_version", cfg.StripeAPIVersion,
		"stripe_dry_run", cfg.StripeDryRun,
		"stripe_timeout", cfg.StripeTimeout,
		"default_currency", cfg.DefaultCurrency,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"slot_lock_wait", cfg.SlotLockWait,
		"min_consultation_duration_min", cfg.MinConsultationDurationMin,
		"verification_batch_size", cfg.VerificationBatchSize,
		"verification_sync_timeout", cfg.VerificationSyncTimeout,
		"events_enabled", cfg.EventsEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"verification_events_topic", cfg.VerificationEventsTopic,
		"tracing_enabled", cfg.TracingEnabled,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func redactMongoURI(uri string) string {
	return reMongoCreds.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
