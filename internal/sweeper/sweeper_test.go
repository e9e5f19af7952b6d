package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/events"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"})
}

func TestStart_RunsImmediately(t *testing.T) {
	ran := make(chan struct{})
	var once sync.Once

	s := New(time.Hour, testLogger(), Job{
		Name: "probe",
		Run: func(context.Context, time.Time) (int, error) {
			once.Do(func() { close(ran) })
			return 0, nil
		},
	})

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first pass did not run on start")
	}
}

func TestRunOnce_JobOrder(t *testing.T) {
	var order []string

	s := New(time.Hour, testLogger(),
		Job{Name: "expire-holds", Run: func(context.Context, time.Time) (int, error) {
			order = append(order, "expire-holds")
			return 0, nil
		}},
		Job{Name: "auto-cancel", Run: func(context.Context, time.Time) (int, error) {
			order = append(order, "auto-cancel")
			return 0, nil
		}},
	)

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"expire-holds", "auto-cancel"}, order)
}

func TestRunOnce_FailingJobDoesNotStopOthers(t *testing.T) {
	ran := false

	s := New(time.Hour, testLogger(),
		Job{Name: "broken", Run: func(context.Context, time.Time) (int, error) {
			return 0, errors.New("mongo unavailable")
		}},
		Job{Name: "healthy", Run: func(context.Context, time.Time) (int, error) {
			ran = true
			return 0, nil
		}},
	)

	s.RunOnce(context.Background())
	assert.True(t, ran, "second job must run despite first failing")
}

func TestStop_Waits(t *testing.T) {
	s := New(time.Hour, testLogger(), Job{
		Name: "noop",
		Run:  func(context.Context, time.Time) (int, error) { return 0, nil },
	})
	s.Start(context.Background())
	s.Stop()

	// Stop after Stop must not panic or hang.
	s.Stop()
}

// Exercises the hold-expiry timeline end to end against a tiny in-memory
// store: a fresh hold survives the first pass, and after the hold deadline
// the next pass expires it exactly once.
func TestHoldExpiryTimeline(t *testing.T) {
	clock := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	holdUntil := clock.Add(5 * time.Minute)

	booking := &model.Booking{
		ID:         "booking-1",
		FacilityID: "facility-1",
		CourtID:    "court-1",
		Date:       "2026-03-14",
		TimeSlots:  []string{"18:00-19:00"},
		Status:     model.StatusPendingPayment,
		HoldUntil:  &holdUntil,
	}
	sink := events.NewMemorySink()

	expirePass := func(ctx context.Context, now time.Time) (int, error) {
		if !booking.IsExpired(now) || booking.Status == model.StatusExpired {
			return 0, nil
		}
		booking.Status = model.StatusExpired
		evt := events.New(events.TypeReservationExpired)
		evt.FacilityID = booking.FacilityID
		evt.CourtID = booking.CourtID
		evt.Date = booking.Date
		evt.TimeSlots = booking.TimeSlots
		evt.BookingID = booking.ID
		if err := sink.Publish(ctx, evt); err != nil {
			return 0, err
		}
		return 1, nil
	}

	s := New(time.Minute, testLogger(), Job{Name: "expire-holds", Run: expirePass})
	s.now = func() time.Time { return clock }

	// Immediately after creation nothing is expired.
	s.RunOnce(context.Background())
	assert.Equal(t, model.StatusPendingPayment, booking.Status)
	assert.Empty(t, sink.Events())

	// Six minutes later the hold has lapsed.
	clock = clock.Add(6 * time.Minute)
	s.RunOnce(context.Background())
	assert.Equal(t, model.StatusExpired, booking.Status)

	evts := sink.OfType(events.TypeReservationExpired)
	require.Len(t, evts, 1)
	assert.Equal(t, []string{"18:00-19:00"}, evts[0].TimeSlots)

	// A further pass changes nothing.
	s.RunOnce(context.Background())
	assert.Len(t, sink.Events(), 1)
}
