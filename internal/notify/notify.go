// Package notify pushes user-facing notifications onto the notification
// topic. Delivery (push, email, SMS) is handled downstream by the
// notification service.
package notify

import (
	"context"

	"courtbook/pkg/kafka"
	"courtbook/pkg/logger"
)

const (
	TypeHoldExpired   = "booking_hold_expired"
	TypeAutoCancelled = "booking_auto_cancelled"
	TypeConfirmed     = "booking_confirmed"
	TypeCancelled     = "booking_cancelled"
)

type Notification struct {
	UserID   string            `json:"userId"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// KafkaNotifier publishes notifications keyed by user so one user's
// notifications stay ordered.
type KafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, log: log}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	msg, err := kafka.NewMessage().
		WithKey(n.UserID).
		WithValue(n).
		WithEventType(n.Type).
		WithSource("reservations-service").
		Build()
	if err != nil {
		k.log.Error("Failed to build notification", "type", n.Type, "user_id", n.UserID, "error", err)
		return err
	}

	if err := k.producer.Publish(ctx, msg); err != nil {
		k.log.Error("Failed to publish notification", "type", n.Type, "user_id", n.UserID, "error", err)
		return err
	}
	return nil
}

// Noop discards notifications. Used when no broker is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
