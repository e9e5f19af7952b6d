package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "courtbook/internal/booking/errors"
	"courtbook/internal/booking/repository"
	"courtbook/internal/booking/validator"
	"courtbook/internal/events"
	"courtbook/internal/interval"
	"courtbook/internal/notify"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/model"
	"courtbook/pkg/sanitizer"
)

const (
	codeAssignAttempts = 3

	ReasonHoldExpired      = "hold_expired"
	ReasonUnconfirmedStart = "not_confirmed_before_start"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)

	// ListByCourtDate returns the bookings still occupying the court on the
	// given day, the front-desk view of a court's schedule.
	ListByCourtDate(ctx context.Context, courtID, date string) ([]*model.Booking, error)

	// IsAvailable reports whether the requested window on the court is free
	// of blocking bookings. The conflict, when present, names the booking
	// that occupies the window.
	IsAvailable(ctx context.Context, courtID, date string, timeSlots []string, start, end *time.Time) (bool, *model.Booking, error)

	// ConfirmPayment settles an online booking after the payment gateway
	// reports success. Confirmations arriving after the hold lapsed move
	// the booking to expired instead.
	ConfirmPayment(ctx context.Context, id string) (*model.Booking, error)

	// ConfirmCash confirms a cash booking on behalf of the facility owner.
	ConfirmCash(ctx context.Context, id string) (*model.Booking, error)

	Cancel(ctx context.Context, id, requestedBy, reason string) (*model.Booking, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)

	// ExpireHolds reclaims unpaid holds whose deadline passed. Returns the
	// number of bookings expired this pass.
	ExpireHolds(ctx context.Context, now time.Time) (int, error)

	// AutoCancelUnconfirmed cancels still-unconfirmed, unpaid bookings whose
	// start time is inside the confirmation deadline.
	AutoCancelUnconfirmed(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	seqRepo   repository.SequenceRepository
	courtRepo repository.CourtRepository
	validator *validator.BookingValidator
	cfg       *config.Config

	sink     events.Sink
	notifier notify.Notifier

	now func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	seqRepo repository.SequenceRepository,
	courtRepo repository.CourtRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
	sink events.Sink,
	notifier notify.Notifier,
) BookingService {
	return &bookingService{
		repo:      repo,
		seqRepo:   seqRepo,
		courtRepo: courtRepo,
		validator: validator,
		cfg:       cfg,
		sink:      sink,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.sanitize(booking)

	court, err := s.courtRepo.FindByID(ctx, booking.CourtID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrCourtNotFound) || errors.Is(err, bookingerrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Court", booking.CourtID)
		}
		return apperrors.Internal("Failed to verify court", err)
	}
	if !court.Active {
		return apperrors.Conflict("Court is not accepting bookings")
	}
	booking.FacilityID = court.FacilityID

	if err := s.validate(booking); err != nil {
		return err
	}

	now := s.now()
	s.applyDefaults(booking, now)

	start, end, err := interval.Span(booking, s.cfg.Location)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("Cannot derive booking window: %v", err))
	}
	booking.StartTime = &start
	booking.EndTime = &end

	// The overlap check and insert run inside one transaction so the check
	// is the last thing that happens before the write. This is the final
	// defense when the advisory lock layer is bypassed or split across
	// instances. A duplicate code gets a fresh sequence number and the
	// insert is retried.
	for attempt := 0; ; attempt++ {
		if err := s.assignCode(ctx, booking); err != nil {
			return err
		}

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			available, conflict, err := s.checkAvailability(sessCtx, booking.CourtID, booking.Date, booking.TimeSlots, booking.StartTime, booking.EndTime, now)
			if err != nil {
				return apperrors.Internal("Failed to verify availability", err)
			}
			if !available {
				return alreadyBookedError(conflict)
			}
			return s.repo.Create(sessCtx, booking)
		})
		if err == nil {
			break
		}
		if errors.Is(err, bookingerrors.ErrDuplicateCode) && attempt < codeAssignAttempts-1 {
			s.cfg.Log.Warn("Booking code collision, retrying with a fresh sequence", "code", booking.Code)
			continue
		}
		if errors.Is(err, bookingerrors.ErrDuplicateCode) {
			err = apperrors.Conflict("Booking code collision, please retry")
		} else if !apperrors.IsAppError(err) {
			err = apperrors.Internal("Failed to create booking", err)
		}
		s.cfg.Log.Error("Failed to create booking", "court_id", booking.CourtID, "date", booking.Date, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"code", booking.Code,
		"court_id", booking.CourtID,
		"date", booking.Date,
		"status", booking.Status,
	)

	s.publish(ctx, events.TypeBookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("Booking code cannot be empty")
	}

	booking, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", code)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	bookings, err := s.repo.FindByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list bookings", err)
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, count, nil
}

func (s *bookingService) ListByCourtDate(ctx context.Context, courtID, date string) ([]*model.Booking, error) {
	if courtID == "" || date == "" {
		return nil, apperrors.InvalidInput("Court ID and date are required")
	}
	if _, err := interval.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput("Date must be YYYY-MM-DD")
	}

	bookings, err := s.repo.FindBlockingForCourtDate(ctx, courtID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}

	now := s.now()
	occupying := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Blocks(now) {
			occupying = append(occupying, b)
		}
	}
	return occupying, nil
}

func (s *bookingService) IsAvailable(ctx context.Context, courtID, date string, timeSlots []string, start, end *time.Time) (bool, *model.Booking, error) {
	return s.checkAvailability(ctx, courtID, date, timeSlots, start, end, s.now())
}

func (s *bookingService) ConfirmPayment(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if booking.Status == model.StatusConfirmed {
		// Gateways retry callbacks; a repeated confirm is not an error.
		return booking, nil
	}
	if booking.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking is already %s", booking.Status))
	}
	if booking.Status != model.StatusPendingPayment && booking.Status != model.StatusHold {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking in status %s cannot be confirmed by payment", booking.Status))
	}

	// Payment callbacks can arrive long after creation. A settlement that
	// lands after the hold lapsed is rejected and the booking expired; the
	// gateway is expected to refund on this response.
	if booking.IsExpired(now) {
		if _, err := s.expireOne(ctx, booking, now); err != nil {
			return nil, err
		}
		return nil, apperrors.HoldExpired(booking.ID)
	}

	ok, err := s.repo.TransitionStatus(ctx, booking.ID,
		[]string{model.StatusPendingPayment, model.StatusHold},
		bson.M{
			"status":         model.StatusConfirmed,
			"payment_status": model.PaymentStatusPaid,
		})
	if err != nil {
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}
	if !ok {
		return nil, apperrors.Conflict("Booking status changed concurrently")
	}

	booking.Status = model.StatusConfirmed
	booking.PaymentStatus = model.PaymentStatusPaid

	s.cfg.Log.Info("Booking confirmed by payment", "id", booking.ID, "code", booking.Code)
	s.publish(ctx, events.TypeSlotConfirmed, booking)
	s.notify(ctx, booking, notify.TypeConfirmed,
		"Booking confirmed",
		fmt.Sprintf("Your booking %s is confirmed.", booking.Code))

	return booking, nil
}

func (s *bookingService) ConfirmCash(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.StatusConfirmed {
		return booking, nil
	}
	if booking.Status != model.StatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking in status %s cannot be cash-confirmed", booking.Status))
	}

	ok, err := s.repo.TransitionStatus(ctx, booking.ID,
		[]string{model.StatusPending},
		bson.M{"status": model.StatusConfirmed})
	if err != nil {
		return nil, apperrors.Internal("Failed to confirm booking", err)
	}
	if !ok {
		return nil, apperrors.Conflict("Booking status changed concurrently")
	}

	booking.Status = model.StatusConfirmed

	s.cfg.Log.Info("Booking confirmed by facility", "id", booking.ID, "code", booking.Code)
	s.publish(ctx, events.TypeSlotConfirmed, booking)
	s.notify(ctx, booking, notify.TypeConfirmed,
		"Booking confirmed",
		fmt.Sprintf("Your booking %s is confirmed. Payment is due at the facility.", booking.Code))

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, requestedBy, reason string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking is already %s", booking.Status))
	}
	if !booking.CanCancel() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking in status %s cannot be cancelled", booking.Status))
	}

	now := s.now()
	set := bson.M{
		"status":        model.StatusCancelled,
		"cancelled_at":  now,
		"cancel_reason": reason,
	}
	if booking.IsEligibleForRefund() {
		set["payment_status"] = model.PaymentStatusRefundPending
	}

	ok, err := s.repo.TransitionStatus(ctx, booking.ID,
		[]string{model.StatusPending, model.StatusPendingPayment, model.StatusHold, model.StatusConfirmed},
		set)
	if err != nil {
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}
	if !ok {
		return nil, apperrors.Conflict("Booking status changed concurrently")
	}

	booking.Status = model.StatusCancelled
	booking.CancelledAt = &now
	booking.CancelReason = reason
	if v, exists := set["payment_status"]; exists {
		booking.PaymentStatus = v.(string)
	}

	s.cfg.Log.Info("Booking cancelled", "id", booking.ID, "code", booking.Code, "by", requestedBy, "reason", reason)
	s.publish(ctx, events.TypeBookingCancelled, booking)
	s.notify(ctx, booking, notify.TypeCancelled,
		"Booking cancelled",
		fmt.Sprintf("Your booking %s has been cancelled.", booking.Code))

	return booking, nil
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.StatusCompleted {
		return booking, nil
	}
	if booking.Status != model.StatusConfirmed {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking in status %s cannot be completed", booking.Status))
	}

	now := s.now()
	day, err := interval.ParseDate(booking.Date)
	if err == nil {
		localMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.cfg.Location)
		if now.Before(localMidnight) {
			return nil, apperrors.Conflict("Booking cannot be completed before its date")
		}
	}

	ok, err := s.repo.TransitionStatus(ctx, booking.ID,
		[]string{model.StatusConfirmed},
		bson.M{
			"status":       model.StatusCompleted,
			"completed_at": now,
		})
	if err != nil {
		return nil, apperrors.Internal("Failed to complete booking", err)
	}
	if !ok {
		return nil, apperrors.Conflict("Booking status changed concurrently")
	}

	booking.Status = model.StatusCompleted
	booking.CompletedAt = &now

	s.cfg.Log.Info("Booking completed", "id", booking.ID, "code", booking.Code)
	s.publish(ctx, events.TypeBookingCompleted, booking)
	return booking, nil
}

func (s *bookingService) ExpireHolds(ctx context.Context, now time.Time) (int, error) {
	expiredHolds, err := s.repo.FindExpiredHolds(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to select expired holds: %w", err)
	}

	expired := 0
	for _, booking := range expiredHolds {
		ok, err := s.expireOne(ctx, booking, now)
		if err != nil {
			s.cfg.Log.Error("Failed to expire hold", "id", booking.ID, "error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		s.cfg.Log.Info("Expired unpaid holds", "count", expired)
	}
	return expired, nil
}

func (s *bookingService) AutoCancelUnconfirmed(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(s.cfg.ConfirmDeadline)
	candidates, err := s.repo.FindUnconfirmedStartingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to select unconfirmed bookings: %w", err)
	}

	cancelled := 0
	for _, booking := range candidates {
		if booking.PaymentStatus == model.PaymentStatusPaid {
			continue
		}

		ok, err := s.repo.TransitionStatus(ctx, booking.ID,
			[]string{model.StatusPending, model.StatusPendingPayment, model.StatusHold},
			bson.M{
				"status":        model.StatusCancelled,
				"cancelled_at":  now,
				"cancel_reason": ReasonUnconfirmedStart,
			})
		if err != nil {
			s.cfg.Log.Error("Failed to auto-cancel booking", "id", booking.ID, "error", err)
			continue
		}
		if !ok {
			// Another pass or a user action already moved it.
			continue
		}
		cancelled++

		booking.Status = model.StatusCancelled
		s.publish(ctx, events.TypeBookingAutoCancelled, booking)
		s.notify(ctx, booking, notify.TypeAutoCancelled,
			"Booking cancelled",
			fmt.Sprintf("Your booking %s was cancelled because it was not confirmed before the start time.", booking.Code))
	}

	if cancelled > 0 {
		s.cfg.Log.Info("Auto-cancelled unconfirmed bookings", "count", cancelled)
	}
	return cancelled, nil
}

// expireOne moves a single unpaid booking to expired. The status filter makes
// repeated calls no-ops, so the sweep stays idempotent; the bool reports
// whether this call performed the transition.
func (s *bookingService) expireOne(ctx context.Context, booking *model.Booking, now time.Time) (bool, error) {
	ok, err := s.repo.TransitionStatus(ctx, booking.ID,
		[]string{model.StatusPendingPayment, model.StatusHold},
		bson.M{
			"status":        model.StatusExpired,
			"cancelled_at":  now,
			"cancel_reason": ReasonHoldExpired,
		})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	booking.Status = model.StatusExpired
	s.publish(ctx, events.TypeReservationExpired, booking)
	s.notify(ctx, booking, notify.TypeHoldExpired,
		"Booking expired",
		fmt.Sprintf("Your booking %s expired because payment was not completed in time.", booking.Code))
	return true, nil
}

func (s *bookingService) checkAvailability(ctx context.Context, courtID, date string, timeSlots []string, start, end *time.Time, now time.Time) (bool, *model.Booking, error) {
	requested, err := s.requestedIntervals(timeSlots, start, end)
	if err != nil {
		return false, nil, apperrors.InvalidInput(err.Error())
	}

	existing, err := s.repo.FindBlockingForCourtDate(ctx, courtID, date)
	if err != nil {
		return false, nil, err
	}

	var blocking []*model.Booking
	for _, b := range existing {
		if b.Blocks(now) {
			blocking = append(blocking, b)
		}
	}

	if conflict := interval.Conflicts(requested, blocking, s.cfg.Location); conflict != nil {
		return false, conflict, nil
	}
	return true, nil, nil
}

func (s *bookingService) requestedIntervals(timeSlots []string, start, end *time.Time) ([]interval.Interval, error) {
	if len(timeSlots) > 0 {
		return interval.FromSlots(timeSlots)
	}
	if start != nil && end != nil {
		iv, err := interval.FromRange(*start, *end, s.cfg.Location)
		if err != nil {
			return nil, err
		}
		return []interval.Interval{iv}, nil
	}
	return nil, fmt.Errorf("either time slots or a start/end range is required")
}

// assignCode mints the next code for the booking's calendar day. The day key
// comes from the booked date, not the creation date, so a booking for
// 2026-03-14 placed days ahead still reads BK-20260314-NNNN.
func (s *bookingService) assignCode(ctx context.Context, booking *model.Booking) error {
	day, err := interval.ParseDate(booking.Date)
	if err != nil {
		return apperrors.InvalidInput("Date must be YYYY-MM-DD")
	}
	dayKey := day.Format("20060102")

	var lastErr error
	for attempt := 0; attempt < codeAssignAttempts; attempt++ {
		seq, err := s.seqRepo.Next(ctx, dayKey)
		if err != nil {
			lastErr = err
			continue
		}
		booking.Code = model.BookingCode(dayKey, seq)
		return nil
	}
	return apperrors.Internal("Failed to assign booking code", lastErr)
}

func (s *bookingService) applyDefaults(booking *model.Booking, now time.Time) {
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = model.PaymentStatusUnpaid
	}

	if booking.Status == "" {
		switch booking.PaymentMethod {
		case model.PaymentMethodOnline:
			booking.Status = model.StatusPendingPayment
		default:
			booking.Status = model.StatusPending
		}
	}

	// Online flows get a payment hold; cash bookings are reclaimed by the
	// confirmation-deadline job instead.
	if booking.Status == model.StatusPendingPayment || booking.Status == model.StatusHold {
		if booking.HoldUntil == nil {
			deadline := now.Add(s.cfg.HoldTTL)
			booking.HoldUntil = &deadline
		}
	}
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.ContactName = sanitizer.NormalizeName(booking.ContactName)
	if booking.ContactPhone != "" {
		booking.ContactPhone = sanitizer.NormalizePhone(booking.ContactPhone)
	}
	for i, slot := range booking.TimeSlots {
		booking.TimeSlots[i] = sanitizer.TrimAndNormalize(slot)
	}
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := make(map[string]any, len(validationErrs))
			for _, ve := range validationErrs {
				details[ve.Field] = ve.Message
			}
			return apperrors.Validation("Booking validation failed", details)
		}
		return apperrors.Internal("Validation failed", err)
	}
	return nil
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}

func (s *bookingService) publish(ctx context.Context, t events.Type, booking *model.Booking) {
	evt := events.New(t)
	evt.FacilityID = booking.FacilityID
	evt.CourtID = booking.CourtID
	evt.Date = booking.Date
	evt.TimeSlots = booking.TimeSlots
	evt.UserID = booking.UserID
	evt.BookingID = booking.ID
	evt.Code = booking.Code

	if err := s.sink.Publish(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish event", "type", t, "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) notify(ctx context.Context, booking *model.Booking, notifType, title, message string) {
	if booking.UserID == "" {
		return
	}
	n := notify.Notification{
		UserID:  booking.UserID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Metadata: map[string]string{
			"booking_id":   booking.ID,
			"booking_code": booking.Code,
			"court_id":     booking.CourtID,
			"date":         booking.Date,
		},
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.cfg.Log.Warn("Failed to send notification", "type", notifType, "user_id", booking.UserID, "error", err)
	}
}

func alreadyBookedError(conflict *model.Booking) error {
	msg := "The requested time is already booked"
	if conflict != nil && len(conflict.TimeSlots) > 0 {
		msg = fmt.Sprintf("The requested time overlaps booked slots %v", conflict.TimeSlots)
	}
	return apperrors.AlreadyBooked(msg)
}
