package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingerrors "courtbook/internal/booking/errors"
	"courtbook/internal/events"
	"courtbook/internal/lockreg"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

type fakeConn struct{}

func (fakeConn) ReadMessage() (int, []byte, error)   { select {} }
func (fakeConn) WriteMessage(int, []byte) error      { return nil }
func (fakeConn) SetReadLimit(int64)                  {}
func (fakeConn) SetReadDeadline(time.Time) error     { return nil }
func (fakeConn) SetWriteDeadline(time.Time) error    { return nil }
func (fakeConn) SetPongHandler(func(string) error)   {}
func (fakeConn) Close() error                        { return nil }

type mockBookings struct {
	CreateFunc      func(ctx context.Context, b *model.Booking) error
	IsAvailableFunc func(ctx context.Context, courtID, date string, timeSlots []string, start, end *time.Time) (bool, *model.Booking, error)
}

func (m *mockBookings) Create(ctx context.Context, b *model.Booking) error {
	return m.CreateFunc(ctx, b)
}
func (m *mockBookings) IsAvailable(ctx context.Context, courtID, date string, timeSlots []string, start, end *time.Time) (bool, *model.Booking, error) {
	if m.IsAvailableFunc == nil {
		return true, nil, nil
	}
	return m.IsAvailableFunc(ctx, courtID, date, timeSlots, start, end)
}
func (m *mockBookings) GetByID(context.Context, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) GetByCode(context.Context, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) ListByUser(context.Context, string, int, int64) ([]*model.Booking, int64, error) {
	panic("not used")
}
func (m *mockBookings) ListByCourtDate(context.Context, string, string) ([]*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) ConfirmPayment(context.Context, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) ConfirmCash(context.Context, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) Cancel(context.Context, string, string, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) Complete(context.Context, string) (*model.Booking, error) {
	panic("not used")
}
func (m *mockBookings) ExpireHolds(context.Context, time.Time) (int, error) {
	panic("not used")
}
func (m *mockBookings) AutoCancelUnconfirmed(context.Context, time.Time) (int, error) {
	panic("not used")
}

type mockCourts struct {
	FindByIDFunc func(ctx context.Context, id string) (*model.Court, error)
}

func (m *mockCourts) FindByID(ctx context.Context, id string) (*model.Court, error) {
	if m.FindByIDFunc == nil {
		return &model.Court{ID: id, FacilityID: "facility-1", Name: "Court 1", Active: true}, nil
	}
	return m.FindByIDFunc(ctx, id)
}

type hubFixture struct {
	hub      *Hub
	locks    *lockreg.MemoryStore
	bookings *mockBookings
	courts   *mockCourts
	sink     *events.MemorySink
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"})
	locks := lockreg.NewMemoryStore(5*time.Minute, time.Hour)
	bookings := &mockBookings{
		CreateFunc: func(_ context.Context, b *model.Booking) error {
			b.ID = "booking-1"
			b.Code = "BK-20260314-0001"
			b.FacilityID = "facility-1"
			b.Status = model.StatusPendingPayment
			return nil
		},
	}
	courts := &mockCourts{}
	sink := events.NewMemorySink()
	fanout := events.NewFanout(sink)

	hub := NewHub(locks, bookings, courts, fanout, log)
	fanout.Add(hub)

	return &hubFixture{hub: hub, locks: locks, bookings: bookings, courts: courts, sink: sink}
}

func (f *hubFixture) connect(userID string) *Client {
	c := newClient(f.hub, fakeConn{}, userID)
	f.hub.register(c)
	return c
}

func (f *hubFixture) send(c *Client, msg ClientMessage) {
	data, _ := json.Marshal(msg)
	f.hub.handleMessage(c, data)
}

// receive drains one message from the client's outbound queue.
func receive(t *testing.T, c *Client) ServerMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return ServerMessage{}
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	default:
	}
}

func lockMsg(slot string) ClientMessage {
	return ClientMessage{
		Action:     ActionLock,
		FacilityID: "facility-1",
		CourtID:    "court-1",
		Date:       "2026-03-14",
		TimeSlot:   slot,
	}
}

func TestLockUnlockRoundTrip(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")

	f.send(alice, lockMsg("18:00-19:00"))

	granted := receive(t, alice)
	assert.Equal(t, EventLockGranted, granted.Event)
	assert.Equal(t, "18:00-19:00", granted.TimeSlot)
	assert.Equal(t, 1, f.locks.Len())
	require.Len(t, f.sink.OfType(events.TypeSlotLocked), 1)

	f.send(alice, ClientMessage{Action: ActionUnlock, CourtID: "court-1", Date: "2026-03-14", TimeSlot: "18:00-19:00"})
	released := receive(t, alice)
	assert.Equal(t, EventLockReleased, released.Event)
	assert.Equal(t, 0, f.locks.Len())
	require.Len(t, f.sink.OfType(events.TypeSlotUnlocked), 1)
}

func TestUnlock_NotHeldIsNoOpFailure(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")

	f.send(alice, ClientMessage{Action: ActionUnlock, CourtID: "court-1", Date: "2026-03-14", TimeSlot: "18:00-19:00"})
	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Reason, "no lock held")
}

func TestLock_UnknownCourtRejectedBeforeLockTable(t *testing.T) {
	f := newHubFixture(t)
	f.courts.FindByIDFunc = func(context.Context, string) (*model.Court, error) {
		return nil, bookingerrors.ErrCourtNotFound
	}
	alice := f.connect("user-alice")

	f.send(alice, lockMsg("18:00-19:00"))

	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Equal(t, "unknown court", msg.Reason)
	assert.Equal(t, 0, f.locks.Len(), "no lock may be granted for a court that does not exist")
	assert.Empty(t, f.sink.Events())
}

func TestLock_InactiveCourtRejected(t *testing.T) {
	f := newHubFixture(t)
	f.courts.FindByIDFunc = func(_ context.Context, id string) (*model.Court, error) {
		return &model.Court{ID: id, FacilityID: "facility-1", Active: false}, nil
	}
	alice := f.connect("user-alice")

	f.send(alice, lockMsg("18:00-19:00"))

	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Reason, "not accepting bookings")
	assert.Equal(t, 0, f.locks.Len())
}

func TestBroadcast_SkipsTheRequester(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")
	bob := f.connect("user-bob")
	f.send(alice, ClientMessage{Action: ActionJoin, CourtID: "court-1", Date: "2026-03-14"})
	receive(t, alice) // lock:state
	f.send(bob, ClientMessage{Action: ActionJoin, CourtID: "court-1", Date: "2026-03-14"})
	receive(t, bob)

	f.send(alice, lockMsg("18:00-19:00"))

	// Alice gets only her direct ack; the room broadcast goes to bob.
	assert.Equal(t, EventLockGranted, receive(t, alice).Event)
	assertNoMessage(t, alice)
	assert.Equal(t, string(events.TypeSlotLocked), receive(t, bob).Event)
}

func TestConfirmScenario(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")
	bob := f.connect("user-bob")
	f.send(bob, ClientMessage{Action: ActionJoin, CourtID: "court-1", Date: "2026-03-14"})
	receive(t, bob) // lock:state

	// Alice locks the slot.
	f.send(alice, lockMsg("18:00-19:00"))
	assert.Equal(t, string(events.TypeSlotLocked), receive(t, bob).Event)

	// Bob's competing lock is refused as contention.
	f.send(bob, lockMsg("18:00-19:00"))
	msg := receive(t, bob)
	assert.Equal(t, EventError, msg.Event)
	assert.Equal(t, "held by another party", msg.Reason)

	// Alice confirms; the booking is created and her locks released.
	f.send(alice, ClientMessage{
		Action:        ActionConfirm,
		CourtID:       "court-1",
		Date:          "2026-03-14",
		TimeSlots:     []string{"18:00-19:00"},
		TotalAmount:   150000,
		PaymentMethod: model.PaymentMethodOnline,
		ContactName:   "Alice",
	})

	confirmed := receive(t, bob)
	assert.Equal(t, string(events.TypeSlotConfirmed), confirmed.Event)
	assert.Equal(t, "BK-20260314-0001", confirmed.Code)
	assert.Equal(t, 0, f.locks.Len(), "locks must be released on confirm")
	require.Len(t, f.sink.OfType(events.TypeSlotConfirmed), 1)

	// Bob retries once the slot is free of locks but now persisted-booked.
	f.bookings.IsAvailableFunc = func(context.Context, string, string, []string, *time.Time, *time.Time) (bool, *model.Booking, error) {
		return false, &model.Booking{Code: "BK-20260314-0001"}, nil
	}
	f.send(bob, lockMsg("18:00-19:00"))
	msg = receive(t, bob)
	assert.Equal(t, EventError, msg.Event)
	assert.Equal(t, "already booked", msg.Reason)
}

func TestConfirm_StolenOrLapsedLockRejectsWholeRequest(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")

	created := false
	f.bookings.CreateFunc = func(context.Context, *model.Booking) error {
		created = true
		return nil
	}

	// Alice holds one of the two requested slots; the other is free.
	f.send(alice, lockMsg("18:00-19:00"))
	receive(t, alice)

	f.send(alice, ClientMessage{
		Action:      ActionConfirm,
		CourtID:     "court-1",
		Date:        "2026-03-14",
		TimeSlots:   []string{"18:00-19:00", "19:00-20:00"},
		ContactName: "Alice",
	})

	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Reason, "19:00-20:00")
	assert.False(t, created, "no partial booking may be created")
	assert.Equal(t, 1, f.locks.Len(), "held lock survives a rejected confirm")
}

func TestConfirm_ServiceFailureReleasesLocks(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")

	f.bookings.CreateFunc = func(context.Context, *model.Booking) error {
		return apperrors.AlreadyBooked("The requested time is already booked")
	}

	f.send(alice, lockMsg("18:00-19:00"))
	receive(t, alice)

	f.send(alice, ClientMessage{
		Action:      ActionConfirm,
		CourtID:     "court-1",
		Date:        "2026-03-14",
		TimeSlots:   []string{"18:00-19:00"},
		ContactName: "Alice",
	})

	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Reason, "already booked")

	assert.Equal(t, 0, f.locks.Len(), "failed confirm must not strand the lock")
	assert.Len(t, f.sink.OfType(events.TypeSlotUnlocked), 1, "compensating release must be broadcast")
}

func TestDisconnect_ReleasesLocksAndBroadcasts(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")
	observer := f.connect("user-bob")
	f.send(observer, ClientMessage{Action: ActionJoin, CourtID: "court-1", Date: "2026-03-14"})
	receive(t, observer)

	f.send(alice, lockMsg("18:00-19:00"))
	receive(t, observer)
	f.send(alice, lockMsg("19:00-20:00"))
	receive(t, observer)
	require.Equal(t, 2, f.locks.Len())

	f.hub.disconnect(alice)

	assert.Equal(t, 0, f.locks.Len(), "disconnect must release every owned lock")
	unlockEvents := f.sink.OfType(events.TypeSlotUnlocked)
	assert.Len(t, unlockEvents, 2, "one unlock event per released lock")

	first := receive(t, observer)
	second := receive(t, observer)
	assert.Equal(t, string(events.TypeSlotUnlocked), first.Event)
	assert.Equal(t, string(events.TypeSlotUnlocked), second.Event)

	// Disconnecting again is harmless.
	f.hub.disconnect(alice)
}

func TestJoin_PushesCurrentLockState(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")
	f.send(alice, lockMsg("18:00-19:00"))
	receive(t, alice) // lock:granted ack

	late := f.connect("user-carol")
	f.send(late, ClientMessage{Action: ActionJoin, CourtID: "court-1", Date: "2026-03-14"})

	state := receive(t, late)
	assert.Equal(t, EventLockState, state.Event)
	require.Len(t, state.Locks, 1)
	assert.Equal(t, "18:00-19:00", state.Locks[0].TimeSlot)
	assert.Equal(t, "user-alice", state.Locks[0].UserID)
	assert.False(t, state.Locks[0].Mine)
}

func TestPublish_DeliversOncePerClient(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")
	// Member of both the facility room and the court room.
	f.send(alice, ClientMessage{Action: ActionJoin, FacilityID: "facility-1", CourtID: "court-1", Date: "2026-03-14"})
	receive(t, alice)

	evt := events.New(events.TypeReservationExpired)
	evt.FacilityID = "facility-1"
	evt.CourtID = "court-1"
	evt.Date = "2026-03-14"
	evt.TimeSlots = []string{"18:00-19:00"}

	require.NoError(t, f.hub.Publish(context.Background(), evt))

	msg := receive(t, alice)
	assert.Equal(t, string(events.TypeReservationExpired), msg.Event)
	assertNoMessage(t, alice)
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	f := newHubFixture(t)
	alice := f.connect("user-alice")

	f.hub.handleMessage(alice, []byte("{not json"))
	assert.Equal(t, EventError, receive(t, alice).Event)

	f.send(alice, ClientMessage{Action: "dance"})
	msg := receive(t, alice)
	assert.Equal(t, EventError, msg.Event)
	assert.Contains(t, msg.Reason, "unknown action")
}
