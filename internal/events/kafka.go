package events

import (
	"context"

	"courtbook/pkg/kafka"
	"courtbook/pkg/logger"
)

const eventSource = "reservations-service"

// KafkaSink publishes reservation events to the event topic. Messages are
// keyed by facility so all events for one facility land on one partition in
// order.
type KafkaSink struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaSink(producer *kafka.Producer, log *logger.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, log: log}
}

func (s *KafkaSink) Publish(ctx context.Context, evt Event) error {
	key := evt.FacilityID
	if key == "" {
		key = evt.CourtID
	}

	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(evt).
		WithEventType(string(evt.Type)).
		WithSource(eventSource).
		WithHeader(kafka.HeaderEventID, evt.ID).
		Build()
	if err != nil {
		s.log.Error("Failed to build event message", "event_type", evt.Type, "error", err)
		return err
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.log.Error("Failed to publish event", "event_type", evt.Type, "event_id", evt.ID, "error", err)
		return err
	}
	return nil
}
