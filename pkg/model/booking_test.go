package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func holdBooking(status string, holdUntil time.Time) *Booking {
	return &Booking{
		Status:        status,
		PaymentStatus: PaymentStatusUnpaid,
		PaymentMethod: PaymentMethodOnline,
		HoldUntil:     &holdUntil,
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("stored expired status wins", func(t *testing.T) {
		b := &Booking{Status: StatusExpired}
		assert.True(t, b.IsExpired(now))
	})

	t.Run("lapsed hold is expired before the sweeper runs", func(t *testing.T) {
		b := holdBooking(StatusPendingPayment, now.Add(-time.Minute))
		assert.True(t, b.IsExpired(now))

		b = holdBooking(StatusHold, now.Add(-time.Minute))
		assert.True(t, b.IsExpired(now))
	})

	t.Run("live hold is not expired", func(t *testing.T) {
		b := holdBooking(StatusHold, now.Add(time.Minute))
		assert.False(t, b.IsExpired(now))
	})

	t.Run("paid booking never expires from hold lapse", func(t *testing.T) {
		b := holdBooking(StatusPendingPayment, now.Add(-time.Minute))
		b.PaymentStatus = PaymentStatusPaid
		assert.False(t, b.IsExpired(now))
	})

	t.Run("cash pending has no hold deadline", func(t *testing.T) {
		b := &Booking{Status: StatusPending, PaymentMethod: PaymentMethodCash}
		assert.False(t, b.IsExpired(now))
	})

	t.Run("confirmed ignores a stale hold_until", func(t *testing.T) {
		b := holdBooking(StatusConfirmed, now.Add(-time.Hour))
		assert.False(t, b.IsExpired(now))
	})
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("reports expired the instant the hold lapses", func(t *testing.T) {
		b := holdBooking(StatusPendingPayment, now.Add(-time.Second))
		assert.Equal(t, StatusPendingPayment, b.Status)
		assert.Equal(t, StatusExpired, b.EffectiveStatus(now))
	})

	t.Run("matches stored status otherwise", func(t *testing.T) {
		b := holdBooking(StatusHold, now.Add(time.Minute))
		assert.Equal(t, StatusHold, b.EffectiveStatus(now))

		b = &Booking{Status: StatusConfirmed}
		assert.Equal(t, StatusConfirmed, b.EffectiveStatus(now))
	})
}

func TestBlocks(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("confirmed and cash pending always block", func(t *testing.T) {
		assert.True(t, (&Booking{Status: StatusConfirmed}).Blocks(now))
		assert.True(t, (&Booking{Status: StatusPending}).Blocks(now))
	})

	t.Run("hold blocks only while live", func(t *testing.T) {
		assert.True(t, holdBooking(StatusHold, now.Add(time.Minute)).Blocks(now))
		assert.False(t, holdBooking(StatusHold, now.Add(-time.Minute)).Blocks(now))
		assert.False(t, holdBooking(StatusPendingPayment, now.Add(-time.Minute)).Blocks(now))
	})

	t.Run("terminal states never block", func(t *testing.T) {
		for _, status := range []string{StatusExpired, StatusCancelled, StatusCompleted} {
			assert.False(t, (&Booking{Status: status}).Blocks(now), status)
		}
	})
}

func TestCanCancelAndRefund(t *testing.T) {
	t.Run("active states can cancel", func(t *testing.T) {
		for _, status := range ActiveStatuses {
			assert.True(t, (&Booking{Status: status}).CanCancel(), status)
		}
	})

	t.Run("terminal states cannot", func(t *testing.T) {
		for _, status := range []string{StatusExpired, StatusCancelled, StatusCompleted} {
			assert.False(t, (&Booking{Status: status}).CanCancel(), status)
		}
	})

	t.Run("refund requires payment", func(t *testing.T) {
		paid := &Booking{Status: StatusConfirmed, PaymentStatus: PaymentStatusPaid}
		assert.True(t, paid.IsEligibleForRefund())

		unpaid := &Booking{Status: StatusConfirmed, PaymentStatus: PaymentStatusUnpaid}
		assert.False(t, unpaid.IsEligibleForRefund())

		completed := &Booking{Status: StatusCompleted, PaymentStatus: PaymentStatusPaid}
		assert.False(t, completed.IsEligibleForRefund())
	})
}

func TestBookingCode(t *testing.T) {
	assert.Equal(t, "BK-20260314-0001", BookingCode("20260314", 1))
	assert.Equal(t, "BK-20260314-0042", BookingCode("20260314", 42))
	assert.Equal(t, "BK-20260314-12345", BookingCode("20260314", 12345))
}

func TestSlotKeyString(t *testing.T) {
	key := SlotKey{CourtID: "c1", Date: "2026-03-14", TimeSlot: "18:00-19:00"}
	assert.Equal(t, "c1|2026-03-14|18:00-19:00", key.String())
}
