package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvLockTTL             = "LOCK_TTL"
	EnvLockSweepInterval   = "LOCK_SWEEP_INTERVAL"
	EnvHoldTTL             = "HOLD_TTL"
	EnvExpirySweepInterval = "EXPIRY_SWEEP_INTERVAL"
	EnvConfirmDeadline     = "CONFIRM_DEADLINE"
	EnvBookingTimezone     = "BOOKING_TIMEZONE"

	EnvPaymentWebhookSecret = "PAYMENT_WEBHOOK_SECRET"

	EnvKafkaNotificationsTopic = "KAFKA_NOTIFICATIONS_TOPIC"
	EnvKafkaEventsTopic        = "KAFKA_EVENTS_TOPIC"
	EnvKafkaEventsDLQTopic     = "KAFKA_EVENTS_DLQ_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
