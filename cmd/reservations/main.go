package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"courtbook/internal/booking/handler"
	"courtbook/internal/booking/repository"
	"courtbook/internal/booking/service"
	"courtbook/internal/booking/validator"
	"courtbook/internal/events"
	"courtbook/internal/lockreg"
	"courtbook/internal/notify"
	"courtbook/internal/realtime"
	"courtbook/internal/sweeper"
	"courtbook/pkg/app"
	"courtbook/pkg/config"
	"courtbook/pkg/contracts"
	"courtbook/pkg/kafka"
	kafka_config "courtbook/pkg/kafka/config"
	"courtbook/pkg/model"
)

const ServiceName = "reservations"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	fanout, closeProducers := initEvents(cfg)
	notifier, closeNotifier := initNotifier(cfg)

	lockStore := lockreg.NewMemoryStore(cfg.LockTTL, cfg.LockSweepInterval)
	lockStore.OnExpired(func(lock model.SlotLock) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		evt := events.New(events.TypeSlotUnlocked)
		evt.CourtID = lock.Key.CourtID
		evt.Date = lock.Key.Date
		evt.TimeSlots = []string{lock.Key.TimeSlot}
		evt.UserID = lock.UserID
		if err := fanout.Publish(ctx, evt); err != nil {
			cfg.Log.Error("Failed to publish lock expiry event", "key", lock.Key.String(), "error", err)
		}
	})

	courtRepo := repository.NewMongoCourtRepository(cfg)
	bookingService := initBookingService(cfg, courtRepo, fanout, notifier)

	hub := realtime.NewHub(lockStore, bookingService, courtRepo, fanout, cfg.Log)
	// The hub subscribes to the same fanout it publishes through, so
	// sweeper and HTTP events reach websocket rooms like its own do.
	fanout.Add(hub)
	wsHandler := realtime.NewHandler(hub, cfg.Log)

	sweep := sweeper.New(cfg.ExpirySweepInterval, cfg.Log,
		sweeper.Job{Name: "expire-holds", Run: bookingService.ExpireHolds},
		sweeper.Job{Name: "auto-cancel-unconfirmed", Run: bookingService.AutoCancelUnconfirmed},
	)
	sweep.Start(context.Background())

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		[]contracts.Handler{handler.NewBookingHandler(bookingService, cfg.Log)},
		[]contracts.Handler{handler.NewPaymentWebhookHandler(bookingService, cfg.Log)},
		wsHandler,
	)
	serverApp.OnShutdown(sweep.Stop)
	serverApp.OnShutdown(closeProducers)
	serverApp.OnShutdown(closeNotifier)
	serverApp.OnShutdown(cfg.Client.GracefulShutdown)
	serverApp.Run()
}

func initBookingService(cfg *config.Config, courtRepo repository.CourtRepository, sink events.Sink, notifier notify.Notifier) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	sequenceRepo := repository.NewMongoSequenceRepository(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		sequenceRepo,
		courtRepo,
		bookingValidator,
		cfg,
		sink,
		notifier,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

// initEvents builds the event fanout. Kafka is best-effort at startup: if
// the producer cannot be constructed the service still runs, delivering
// events to websocket rooms only.
func initEvents(cfg *config.Config) (*events.Fanout, func()) {
	fanout := events.NewFanout()

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaEventsTopic, cfg.KafkaEventsDLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka events producer unavailable, continuing without it", "error", err)
		return fanout, func() {}
	}

	fanout.Add(events.NewKafkaSink(producer, cfg.Log))
	cfg.Log.Info("Kafka events producer initialized", "topic", cfg.KafkaEventsTopic, "dlq", cfg.KafkaEventsDLQTopic)

	return fanout, func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close events producer", "error", err)
		}
	}
}

func initNotifier(cfg *config.Config) (notify.Notifier, func()) {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaNotificationsTopic, "")
	if err != nil {
		cfg.Log.Warn("Kafka notifications producer unavailable, notifications disabled", "error", err)
		return notify.Noop{}, func() {}
	}

	cfg.Log.Info("Kafka notifications producer initialized", "topic", cfg.KafkaNotificationsTopic)

	return notify.NewKafkaNotifier(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close notifications producer", "error", err)
		}
	}
}
