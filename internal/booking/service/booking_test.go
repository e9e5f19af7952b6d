package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "courtbook/internal/booking/errors"
	"courtbook/internal/booking/validator"
	"courtbook/internal/events"
	"courtbook/internal/notify"
	mongotx "courtbook/pkg/db/mongo"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

type mockBookingRepo struct {
	CreateFunc                        func(ctx context.Context, b *model.Booking) error
	FindByIDFunc                      func(ctx context.Context, id string) (*model.Booking, error)
	FindByCodeFunc                    func(ctx context.Context, code string) (*model.Booking, error)
	FindByUserFunc                    func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	CountByUserFunc                   func(ctx context.Context, userID string) (int64, error)
	FindBlockingForCourtDateFunc      func(ctx context.Context, courtID, date string) ([]*model.Booking, error)
	TransitionStatusFunc              func(ctx context.Context, id string, from []string, set bson.M) (bool, error)
	FindExpiredHoldsFunc              func(ctx context.Context, now time.Time) ([]*model.Booking, error)
	FindUnconfirmedStartingBeforeFunc func(ctx context.Context, cutoff time.Time) ([]*model.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return m.CreateFunc(ctx, b)
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.FindByIDFunc(ctx, id)
}
func (m *mockBookingRepo) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	return m.FindByCodeFunc(ctx, code)
}
func (m *mockBookingRepo) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	return m.FindByUserFunc(ctx, userID, limit, offset)
}
func (m *mockBookingRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return m.CountByUserFunc(ctx, userID)
}
func (m *mockBookingRepo) FindBlockingForCourtDate(ctx context.Context, courtID, date string) ([]*model.Booking, error) {
	return m.FindBlockingForCourtDateFunc(ctx, courtID, date)
}
func (m *mockBookingRepo) TransitionStatus(ctx context.Context, id string, from []string, set bson.M) (bool, error) {
	return m.TransitionStatusFunc(ctx, id, from, set)
}
func (m *mockBookingRepo) FindExpiredHolds(ctx context.Context, now time.Time) ([]*model.Booking, error) {
	return m.FindExpiredHoldsFunc(ctx, now)
}
func (m *mockBookingRepo) FindUnconfirmedStartingBefore(ctx context.Context, cutoff time.Time) ([]*model.Booking, error) {
	return m.FindUnconfirmedStartingBeforeFunc(ctx, cutoff)
}
func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockSequenceRepo struct {
	seq int64
	mu  sync.Mutex
}

func (m *mockSequenceRepo) Next(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

type mockCourtRepo struct {
	FindByIDFunc func(ctx context.Context, id string) (*model.Court, error)
}

func (m *mockCourtRepo) FindByID(ctx context.Context, id string) (*model.Court, error) {
	return m.FindByIDFunc(ctx, id)
}

type countingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *countingNotifier) Notify(_ context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var (
	testCourtID    = primitive.NewObjectID().Hex()
	testFacilityID = primitive.NewObjectID().Hex()
	testUserID     = primitive.NewObjectID().Hex()
)

type fixture struct {
	svc      *bookingService
	repo     *mockBookingRepo
	sink     *events.MemorySink
	notifier *countingNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"})
	cfg := &config.Config{
		HoldTTL:         5 * time.Minute,
		ConfirmDeadline: 15 * time.Minute,
		Location:        time.UTC,
		Log:             log,
	}

	repo := &mockBookingRepo{
		FindBlockingForCourtDateFunc: func(context.Context, string, string) ([]*model.Booking, error) {
			return nil, nil
		},
		CreateFunc: func(_ context.Context, b *model.Booking) error {
			b.ID = primitive.NewObjectID().Hex()
			return nil
		},
	}
	courtRepo := &mockCourtRepo{
		FindByIDFunc: func(_ context.Context, id string) (*model.Court, error) {
			return &model.Court{ID: id, FacilityID: testFacilityID, Name: "Court 1", Active: true}, nil
		},
	}

	sink := events.NewMemorySink()
	notifier := &countingNotifier{}

	svc := NewBookingService(repo, &mockSequenceRepo{}, courtRepo, validator.NewBookingValidator(log), cfg, sink, notifier).(*bookingService)
	f := &fixture{svc: svc, repo: repo, sink: sink, notifier: notifier, clock: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.clock }
	return f
}

func newDraft() *model.Booking {
	return &model.Booking{
		UserID:        testUserID,
		CourtID:       testCourtID,
		Date:          "2026-03-14",
		TimeSlots:     []string{"18:00-19:00"},
		TotalAmount:   150000,
		PaymentMethod: model.PaymentMethodOnline,
		ContactName:   "Nguyen Van A",
	}
}

func TestCreate_OnlineDefaultsToPendingPaymentWithHold(t *testing.T) {
	f := newFixture(t)
	booking := newDraft()

	require.NoError(t, f.svc.Create(context.Background(), booking))

	assert.Equal(t, model.StatusPendingPayment, booking.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, booking.PaymentStatus)
	require.NotNil(t, booking.HoldUntil)
	assert.Equal(t, f.clock.Add(5*time.Minute), *booking.HoldUntil)
	assert.Equal(t, testFacilityID, booking.FacilityID)
	assert.Equal(t, "BK-20260314-0001", booking.Code)

	require.NotNil(t, booking.StartTime)
	require.NotNil(t, booking.EndTime)
	assert.Equal(t, time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC), *booking.StartTime)

	created := f.sink.OfType(events.TypeBookingCreated)
	require.Len(t, created, 1)
	assert.Equal(t, booking.ID, created[0].BookingID)
}

func TestCreate_CashDefaultsToPendingWithoutHold(t *testing.T) {
	f := newFixture(t)
	booking := newDraft()
	booking.PaymentMethod = model.PaymentMethodCash

	require.NoError(t, f.svc.Create(context.Background(), booking))

	assert.Equal(t, model.StatusPending, booking.Status)
	assert.Nil(t, booking.HoldUntil)
}

func TestCreate_CodeDerivesFromBookingDate(t *testing.T) {
	f := newFixture(t)
	// Clock stays on 2026-03-14; the booking is placed days ahead.
	booking := newDraft()
	booking.Date = "2026-03-20"

	require.NoError(t, f.svc.Create(context.Background(), booking))

	assert.Equal(t, "BK-20260320-0001", booking.Code)
}

func TestCreate_RetriesOnCodeCollision(t *testing.T) {
	f := newFixture(t)
	attempts := 0
	f.repo.CreateFunc = func(_ context.Context, b *model.Booking) error {
		attempts++
		if attempts == 1 {
			return bookingerrors.ErrDuplicateCode
		}
		b.ID = primitive.NewObjectID().Hex()
		return nil
	}

	booking := newDraft()
	require.NoError(t, f.svc.Create(context.Background(), booking))

	assert.Equal(t, 2, attempts, "insert is retried after a code collision")
	assert.Equal(t, "BK-20260314-0002", booking.Code, "retry mints a fresh sequence number")
	require.Len(t, f.sink.OfType(events.TypeBookingCreated), 1)
}

func TestCreate_CodeCollisionExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	f.repo.CreateFunc = func(context.Context, *model.Booking) error {
		return bookingerrors.ErrDuplicateCode
	}

	err := f.svc.Create(context.Background(), newDraft())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.sink.Events())
}

func TestCreate_RejectsOverlapWithConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	f.repo.FindBlockingForCourtDateFunc = func(context.Context, string, string) ([]*model.Booking, error) {
		return []*model.Booking{{
			ID:        primitive.NewObjectID().Hex(),
			Status:    model.StatusConfirmed,
			TimeSlots: []string{"18:30-19:30"},
		}}, nil
	}

	err := f.svc.Create(context.Background(), newDraft())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyBooked))
	assert.Empty(t, f.sink.Events(), "no event for a rejected booking")
}

func TestCreate_ExpiredHoldDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	holdUntil := f.clock.Add(-time.Minute)
	f.repo.FindBlockingForCourtDateFunc = func(context.Context, string, string) ([]*model.Booking, error) {
		return []*model.Booking{{
			ID:        primitive.NewObjectID().Hex(),
			Status:    model.StatusPendingPayment,
			TimeSlots: []string{"18:00-19:00"},
			HoldUntil: &holdUntil,
		}}, nil
	}

	assert.NoError(t, f.svc.Create(context.Background(), newDraft()))
}

func TestCreate_CorruptBlockingBookingFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.repo.FindBlockingForCourtDateFunc = func(context.Context, string, string) ([]*model.Booking, error) {
		// No slots and no range: the occupied window cannot be derived.
		return []*model.Booking{{
			ID:     primitive.NewObjectID().Hex(),
			Status: model.StatusConfirmed,
		}}, nil
	}

	err := f.svc.Create(context.Background(), newDraft())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyBooked),
		"underivable interval must block, not pass")
}

func TestCreate_ValidationFailures(t *testing.T) {
	f := newFixture(t)

	t.Run("missing contact name", func(t *testing.T) {
		booking := newDraft()
		booking.ContactName = ""
		err := f.svc.Create(context.Background(), booking)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})

	t.Run("bad slot label", func(t *testing.T) {
		booking := newDraft()
		booking.TimeSlots = []string{"18:00 to 19:00"}
		err := f.svc.Create(context.Background(), booking)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})

	t.Run("no slots and no range", func(t *testing.T) {
		booking := newDraft()
		booking.TimeSlots = nil
		err := f.svc.Create(context.Background(), booking)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})

	t.Run("inactive court", func(t *testing.T) {
		fi := newFixture(t)
		fi.svc.courtRepo = &mockCourtRepo{FindByIDFunc: func(_ context.Context, id string) (*model.Court, error) {
			return &model.Court{ID: id, FacilityID: testFacilityID, Active: false}, nil
		}}
		err := fi.svc.Create(context.Background(), newDraft())
		assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	})
}

func TestConfirmPayment_Succeeds(t *testing.T) {
	f := newFixture(t)
	holdUntil := f.clock.Add(3 * time.Minute)
	stored := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Code:          "BK-20260314-0001",
		UserID:        testUserID,
		CourtID:       testCourtID,
		FacilityID:    testFacilityID,
		Date:          "2026-03-14",
		TimeSlots:     []string{"18:00-19:00"},
		Status:        model.StatusPendingPayment,
		PaymentStatus: model.PaymentStatusUnpaid,
		HoldUntil:     &holdUntil,
	}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	var gotFrom []string
	f.repo.TransitionStatusFunc = func(_ context.Context, _ string, from []string, set bson.M) (bool, error) {
		gotFrom = from
		assert.Equal(t, model.StatusConfirmed, set["status"])
		assert.Equal(t, model.PaymentStatusPaid, set["payment_status"])
		return true, nil
	}

	booking, err := f.svc.ConfirmPayment(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, booking.Status)
	assert.Contains(t, gotFrom, model.StatusPendingPayment)

	assert.Len(t, f.sink.OfType(events.TypeSlotConfirmed), 1)
	assert.Equal(t, 1, f.notifier.count())
}

func TestConfirmPayment_AfterHoldLapsedRejectsAndExpires(t *testing.T) {
	f := newFixture(t)
	holdUntil := f.clock.Add(-time.Minute)
	stored := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Code:          "BK-20260314-0002",
		UserID:        testUserID,
		FacilityID:    testFacilityID,
		Date:          "2026-03-14",
		TimeSlots:     []string{"18:00-19:00"},
		Status:        model.StatusPendingPayment,
		PaymentStatus: model.PaymentStatusUnpaid,
		HoldUntil:     &holdUntil,
	}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	var expiredSet bson.M
	f.repo.TransitionStatusFunc = func(_ context.Context, _ string, _ []string, set bson.M) (bool, error) {
		expiredSet = set
		return true, nil
	}

	_, err := f.svc.ConfirmPayment(context.Background(), stored.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeHoldExpired))
	assert.Equal(t, model.StatusExpired, expiredSet["status"])
	assert.Len(t, f.sink.OfType(events.TypeReservationExpired), 1)
}

func TestConfirmPayment_IdempotentOnRepeatedCallback(t *testing.T) {
	f := newFixture(t)
	stored := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Status:        model.StatusConfirmed,
		PaymentStatus: model.PaymentStatusPaid,
	}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	booking, err := f.svc.ConfirmPayment(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, booking.Status)
	assert.Empty(t, f.sink.Events(), "repeat callback must not re-emit")
}

func TestConfirmPayment_TerminalStatesRejected(t *testing.T) {
	f := newFixture(t)
	for _, status := range []string{model.StatusCancelled, model.StatusExpired, model.StatusCompleted} {
		stored := &model.Booking{ID: primitive.NewObjectID().Hex(), Status: status}
		f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

		_, err := f.svc.ConfirmPayment(context.Background(), stored.ID)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "status %s must reject", status)
	}
}

func TestCancel_PaidBookingFlagsRefund(t *testing.T) {
	f := newFixture(t)
	stored := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Code:          "BK-20260314-0003",
		UserID:        testUserID,
		Status:        model.StatusConfirmed,
		PaymentStatus: model.PaymentStatusPaid,
	}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	var gotSet bson.M
	f.repo.TransitionStatusFunc = func(_ context.Context, _ string, _ []string, set bson.M) (bool, error) {
		gotSet = set
		return true, nil
	}

	booking, err := f.svc.Cancel(context.Background(), stored.ID, testUserID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, booking.Status)
	assert.Equal(t, model.PaymentStatusRefundPending, gotSet["payment_status"])
	assert.Equal(t, "change of plans", gotSet["cancel_reason"])
	assert.Len(t, f.sink.OfType(events.TypeBookingCancelled), 1)
}

func TestCancel_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	stored := &model.Booking{ID: primitive.NewObjectID().Hex(), Status: model.StatusExpired}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	_, err := f.svc.Cancel(context.Background(), stored.ID, testUserID, "late")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestComplete_BeforeBookingDateRejected(t *testing.T) {
	f := newFixture(t)
	stored := &model.Booking{
		ID:     primitive.NewObjectID().Hex(),
		Date:   "2026-03-20",
		Status: model.StatusConfirmed,
	}
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) { return stored, nil }

	_, err := f.svc.Complete(context.Background(), stored.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestExpireHolds_TransitionsAndNotifies(t *testing.T) {
	f := newFixture(t)
	holdUntil := f.clock.Add(-time.Minute)
	expiredHold := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Code:          "BK-20260314-0004",
		UserID:        testUserID,
		FacilityID:    testFacilityID,
		CourtID:       testCourtID,
		Date:          "2026-03-14",
		TimeSlots:     []string{"18:00-19:00"},
		Status:        model.StatusPendingPayment,
		PaymentStatus: model.PaymentStatusUnpaid,
		HoldUntil:     &holdUntil,
	}
	f.repo.FindExpiredHoldsFunc = func(context.Context, time.Time) ([]*model.Booking, error) {
		return []*model.Booking{expiredHold}, nil
	}
	f.repo.TransitionStatusFunc = func(_ context.Context, _ string, _ []string, set bson.M) (bool, error) {
		assert.Equal(t, model.StatusExpired, set["status"])
		assert.Equal(t, ReasonHoldExpired, set["cancel_reason"])
		return true, nil
	}

	count, err := f.svc.ExpireHolds(context.Background(), f.clock)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	evts := f.sink.OfType(events.TypeReservationExpired)
	require.Len(t, evts, 1)
	assert.Equal(t, []string{"18:00-19:00"}, evts[0].TimeSlots)
	assert.Equal(t, 1, f.notifier.count())
}

func TestExpireHolds_SecondPassIsNoOp(t *testing.T) {
	f := newFixture(t)
	holdUntil := f.clock.Add(-time.Minute)
	stale := &model.Booking{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    testUserID,
		Status:    model.StatusPendingPayment,
		HoldUntil: &holdUntil,
	}
	f.repo.FindExpiredHoldsFunc = func(context.Context, time.Time) ([]*model.Booking, error) {
		return []*model.Booking{stale}, nil
	}

	// First pass transitions; second pass's conditional update matches
	// nothing because the status already moved.
	matched := true
	f.repo.TransitionStatusFunc = func(context.Context, string, []string, bson.M) (bool, error) {
		was := matched
		matched = false
		return was, nil
	}

	count, err := f.svc.ExpireHolds(context.Background(), f.clock)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = f.svc.ExpireHolds(context.Background(), f.clock)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second pass must be a no-op")
	assert.Len(t, f.sink.OfType(events.TypeReservationExpired), 1, "no duplicate events")
	assert.Equal(t, 1, f.notifier.count(), "no duplicate notifications")
}

func TestAutoCancelUnconfirmed(t *testing.T) {
	f := newFixture(t)
	start := f.clock.Add(10 * time.Minute)
	unconfirmed := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Code:          "BK-20260314-0005",
		UserID:        testUserID,
		FacilityID:    testFacilityID,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		StartTime:     &start,
	}
	paid := &model.Booking{
		ID:            primitive.NewObjectID().Hex(),
		Status:        model.StatusPendingPayment,
		PaymentStatus: model.PaymentStatusPaid,
		StartTime:     &start,
	}

	var gotCutoff time.Time
	f.repo.FindUnconfirmedStartingBeforeFunc = func(_ context.Context, cutoff time.Time) ([]*model.Booking, error) {
		gotCutoff = cutoff
		return []*model.Booking{unconfirmed, paid}, nil
	}
	f.repo.TransitionStatusFunc = func(_ context.Context, id string, _ []string, set bson.M) (bool, error) {
		assert.Equal(t, unconfirmed.ID, id, "paid booking must not be touched")
		assert.Equal(t, ReasonUnconfirmedStart, set["cancel_reason"])
		return true, nil
	}

	count, err := f.svc.AutoCancelUnconfirmed(context.Background(), f.clock)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, f.clock.Add(15*time.Minute), gotCutoff)
	assert.Len(t, f.sink.OfType(events.TypeBookingAutoCancelled), 1)
	assert.Equal(t, 1, f.notifier.count())
}

func TestIsAvailable(t *testing.T) {
	f := newFixture(t)
	f.repo.FindBlockingForCourtDateFunc = func(context.Context, string, string) ([]*model.Booking, error) {
		return []*model.Booking{{
			ID:        primitive.NewObjectID().Hex(),
			Code:      "BK-20260314-0006",
			Status:    model.StatusConfirmed,
			TimeSlots: []string{"18:00-19:00"},
		}}, nil
	}

	available, conflict, err := f.svc.IsAvailable(context.Background(), testCourtID, "2026-03-14", []string{"18:30-19:30"}, nil, nil)
	require.NoError(t, err)
	assert.False(t, available)
	require.NotNil(t, conflict)
	assert.Equal(t, "BK-20260314-0006", conflict.Code)

	available, conflict, err = f.svc.IsAvailable(context.Background(), testCourtID, "2026-03-14", []string{"19:00-20:00"}, nil, nil)
	require.NoError(t, err)
	assert.True(t, available)
	assert.Nil(t, conflict)
}

func TestListByCourtDate_FiltersLapsedHolds(t *testing.T) {
	f := newFixture(t)
	lapsed := f.clock.Add(-time.Minute)
	f.repo.FindBlockingForCourtDateFunc = func(context.Context, string, string) ([]*model.Booking, error) {
		return []*model.Booking{
			{ID: primitive.NewObjectID().Hex(), Status: model.StatusConfirmed, TimeSlots: []string{"18:00-19:00"}},
			{ID: primitive.NewObjectID().Hex(), Status: model.StatusPendingPayment, TimeSlots: []string{"19:00-20:00"}, HoldUntil: &lapsed},
		}, nil
	}

	bookings, err := f.svc.ListByCourtDate(context.Background(), testCourtID, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, bookings, 1, "a lapsed hold no longer occupies the court")
	assert.Equal(t, model.StatusConfirmed, bookings[0].Status)

	_, err = f.svc.ListByCourtDate(context.Background(), testCourtID, "14/03/2026")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestGetByID_MapsRepoErrors(t *testing.T) {
	f := newFixture(t)
	f.repo.FindByIDFunc = func(context.Context, string) (*model.Booking, error) {
		return nil, bookingerrors.ErrNotFound
	}

	_, err := f.svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.GetByID(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}
