package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"courtbook/pkg/client"
	"courtbook/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	LockTTL             time.Duration
	LockSweepInterval   time.Duration
	HoldTTL             time.Duration
	ExpirySweepInterval time.Duration
	ConfirmDeadline     time.Duration

	BookingTimezone string
	Location        *time.Location

	PaymentWebhookSecret string

	KafkaNotificationsTopic string
	KafkaEventsTopic        string
	KafkaEventsDLQTopic     string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		LockTTL:             getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockSweepInterval:   getEnvDuration(EnvLockSweepInterval, DefaultLockSweepInterval),
		HoldTTL:             getEnvDuration(EnvHoldTTL, DefaultHoldTTL),
		ExpirySweepInterval: getEnvDuration(EnvExpirySweepInterval, DefaultExpirySweepInterval),
		ConfirmDeadline:     getEnvDuration(EnvConfirmDeadline, DefaultConfirmDeadline),

		BookingTimezone: getEnvStr(EnvBookingTimezone, DefaultBookingTimezone),

		PaymentWebhookSecret: getEnvStr(EnvPaymentWebhookSecret, ""),

		KafkaNotificationsTopic: getEnvStr(EnvKafkaNotificationsTopic, DefaultKafkaNotificationsTopic),
		KafkaEventsTopic:        getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaEventsDLQTopic:     getEnvStr(EnvKafkaEventsDLQTopic, DefaultKafkaEventsDLQTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("BookingTimezone is not a valid IANA zone, got: %s", cfg.BookingTimezone))
	} else {
		cfg.Location = loc
	}

	durations := map[string]time.Duration{
		"LockTTL":             cfg.LockTTL,
		"LockSweepInterval":   cfg.LockSweepInterval,
		"HoldTTL":             cfg.HoldTTL,
		"ExpirySweepInterval": cfg.ExpirySweepInterval,
		"ConfirmDeadline":     cfg.ConfirmDeadline,
		"RateLimitWindow":     cfg.RateLimitWindow,
		"RequestTimeout":      cfg.RequestTimeout,
		"IdempotencyTTL":      cfg.IdempotencyTTL,
		"ReadTimeout":         cfg.ReadTimeout,
		"WriteTimeout":        cfg.WriteTimeout,
		"IdleTimeout":         cfg.IdleTimeout,
		"ShutdownTimeout":     cfg.ShutdownTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.KafkaEventsTopic == "" {
		errors = append(errors, "KafkaEventsTopic cannot be empty")
	}
	if cfg.KafkaNotificationsTopic == "" {
		errors = append(errors, "KafkaNotificationsTopic cannot be empty")
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

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"lock_ttl", cfg.LockTTL,
		"lock_sweep_interval", cfg.LockSweepInterval,
		"hold_ttl", cfg.HoldTTL,
		"expiry_sweep_interval", cfg.ExpirySweepInterval,
		"confirm_deadline", cfg.ConfirmDeadline,
		"booking_timezone", cfg.BookingTimezone,
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"kafka_events_topic", cfg.KafkaEventsTopic,
		"kafka_notifications_topic", cfg.KafkaNotificationsTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
