package model

import (
	"time"
)

// Booking statuses. pending_payment and hold are the two hold-style entry
// states; expired, cancelled and completed are terminal.
const (
	StatusPending        = "pending"
	StatusPendingPayment = "pending_payment"
	StatusHold           = "hold"
	StatusConfirmed      = "confirmed"
	StatusExpired        = "expired"
	StatusCancelled      = "cancelled"
	StatusCompleted      = "completed"
)

const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPaid          = "paid"
	PaymentStatusRefundPending = "refund_pending"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
)

// ActiveStatuses are the statuses that can still occupy a court slot.
var ActiveStatuses = []string{
	StatusPending,
	StatusPendingPayment,
	StatusHold,
	StatusConfirmed,
}

type Booking struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code       string `json:"code,omitempty" bson:"code,omitempty"`
	UserID     string `json:"user_id,omitempty" bson:"user_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID string `json:"facility_id" bson:"facility_id" validate:"required,mongodb"`
	CourtID    string `json:"court_id" bson:"court_id" validate:"required,mongodb"`

	// Date is the local calendar day of the booking, always YYYY-MM-DD in
	// the configured booking timezone.
	Date string `json:"date" bson:"date" validate:"required,slotdate"`

	// Either TimeSlots holds sorted contiguous labels ("18:00-19:00", ...)
	// or StartTime/EndTime carry an explicit instant pair (flexible booking).
	TimeSlots []string   `json:"time_slots,omitempty" bson:"time_slots,omitempty" validate:"omitempty,min=1,dive,timeslot"`
	StartTime *time.Time `json:"start_time,omitempty" bson:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty" bson:"end_time,omitempty"`

	TotalAmount   int64  `json:"total_amount" bson:"total_amount" validate:"min=0"`
	PaymentMethod string `json:"payment_method" bson:"payment_method" validate:"required,oneof=cash online"`
	PaymentStatus string `json:"payment_status" bson:"payment_status" validate:"omitempty,oneof=unpaid paid refund_pending"`

	Status string `json:"status" bson:"status" validate:"omitempty,oneof=pending pending_payment hold confirmed expired cancelled completed"`

	// HoldUntil is the instant after which an unpaid reservation becomes
	// eligible for automatic expiry. Unset for cash bookings.
	HoldUntil *time.Time `json:"hold_until,omitempty" bson:"hold_until,omitempty"`

	ContactName  string `json:"contact_name" bson:"contact_name" validate:"required,min=2,max=100"`
	ContactPhone string `json:"contact_phone" bson:"contact_phone" validate:"omitempty,e164"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

func (b *Booking) IsPending() bool {
	return b.Status == StatusPending || b.Status == StatusPendingPayment
}

func (b *Booking) IsHold() bool {
	return b.Status == StatusHold
}

// IsExpired reports the booking's real expiry state: either the stored
// status already says expired, or the hold deadline has passed on an
// unpaid hold-style booking and the sweeper simply has not caught up yet.
func (b *Booking) IsExpired(now time.Time) bool {
	if b.Status == StatusExpired {
		return true
	}
	if b.Status != StatusPendingPayment && b.Status != StatusHold {
		return false
	}
	if b.PaymentStatus == PaymentStatusPaid {
		return false
	}
	return b.HoldUntil != nil && now.After(*b.HoldUntil)
}

func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusExpired, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (b *Booking) CanCancel() bool {
	switch b.Status {
	case StatusPending, StatusPendingPayment, StatusHold, StatusConfirmed:
		return true
	}
	return false
}

func (b *Booking) IsEligibleForRefund() bool {
	return b.PaymentStatus == PaymentStatusPaid && b.CanCancel()
}

// Blocks reports whether the booking still occupies its slots at the given
// instant. Confirmed and cash-pending bookings block unconditionally; the
// hold-style states only block while the hold has not lapsed.
func (b *Booking) Blocks(now time.Time) bool {
	switch b.Status {
	case StatusConfirmed, StatusPending:
		return true
	case StatusPendingPayment, StatusHold:
		return !b.IsExpired(now)
	}
	return false
}

// EffectiveStatus is the computed status at the given instant: the stored
// enum unless the booking is logically expired and not yet swept.
func (b *Booking) EffectiveStatus(now time.Time) string {
	if b.Status != StatusExpired && b.IsExpired(now) {
		return StatusExpired
	}
	return b.Status
}
