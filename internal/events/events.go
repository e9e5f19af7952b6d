// Package events defines the reservation event stream. Services publish
// events through a Sink without knowing who consumes them; the realtime hub
// and the Kafka producer both subscribe through a Fanout.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSlotLocked           Type = "slot:locked"
	TypeSlotUnlocked         Type = "slot:unlocked"
	TypeSlotConfirmed        Type = "slot:confirmed"
	TypeBookingCreated       Type = "booking:created"
	TypeReservationExpired   Type = "reservation:expired"
	TypeBookingAutoCancelled Type = "booking:auto_cancelled"
	TypeBookingCancelled     Type = "booking:cancelled"
	TypeBookingCompleted     Type = "booking:completed"
)

// Event is a single occurrence on a court's schedule. Slot events carry one
// time slot; booking events may carry several.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	FacilityID string    `json:"facilityId,omitempty"`
	CourtID    string    `json:"courtId"`
	Date       string    `json:"date"`
	TimeSlots  []string  `json:"timeSlots,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	BookingID  string    `json:"bookingId,omitempty"`
	Code       string    `json:"code,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`

	// Origin is the realtime connection that caused the event, when there is
	// one. Broadcasts skip the originator, which already got a direct ack.
	// In-process only, never serialized.
	Origin string `json:"-"`
}

// New stamps an event with an ID and occurrence time.
func New(t Type) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink receives published events.
type Sink interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout delivers each event to every registered sink. Sinks added after
// construction (the realtime hub is built after the services that publish to
// it) must be registered before traffic starts.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink. Not safe to call concurrently with Publish.
func (f *Fanout) Add(sink Sink) {
	f.sinks = append(f.sinks, sink)
}

// Publish delivers the event to every sink. One sink failing does not stop
// delivery to the others.
func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
