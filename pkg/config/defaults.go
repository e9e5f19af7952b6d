package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "courtbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// A lock claims a slot for five minutes; abandoned locks are reclaimed
	// by a sweep every minute regardless of read traffic.
	DefaultLockTTL           = 5 * time.Minute
	DefaultLockSweepInterval = 60 * time.Second

	// Unpaid reservations hold their slots for five minutes; a sweep every
	// minute expires the ones whose hold lapsed.
	DefaultHoldTTL             = 5 * time.Minute
	DefaultExpirySweepInterval = 60 * time.Second

	// Unconfirmed bookings are auto-cancelled when their start time comes
	// within this window.
	DefaultConfirmDeadline = 15 * time.Minute

	DefaultBookingTimezone = "Asia/Ho_Chi_Minh"

	DefaultKafkaNotificationsTopic = "user-notifications"
	DefaultKafkaEventsTopic        = "reservation-events"
	DefaultKafkaEventsDLQTopic     = ""

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
