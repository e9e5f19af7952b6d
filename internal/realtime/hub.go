package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingerrors "courtbook/internal/booking/errors"
	"courtbook/internal/booking/repository"
	"courtbook/internal/booking/service"
	"courtbook/internal/events"
	"courtbook/internal/interval"
	"courtbook/internal/lockreg"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

const handleTimeout = 10 * time.Second

// Hub routes realtime traffic: it owns the room membership, translates client
// actions into lock registry and booking service calls, and delivers
// reservation events into rooms. It is itself an events.Sink, so sweeper and
// HTTP-originated events reach connected clients through the same fanout as
// socket-originated ones.
type Hub struct {
	locks    lockreg.Store
	bookings service.BookingService
	courts   repository.CourtRepository
	sink     events.Sink
	log      *logger.Logger

	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[string]*Client
}

func NewHub(locks lockreg.Store, bookings service.BookingService, courts repository.CourtRepository, sink events.Sink, log *logger.Logger) *Hub {
	return &Hub{
		locks:    locks,
		bookings: bookings,
		courts:   courts,
		sink:     sink,
		log:      log,
		rooms:    make(map[string]map[*Client]struct{}),
		clients:  make(map[string]*Client),
	}
}

func facilityRoom(facilityID string) string {
	return "facility:" + facilityID
}

func courtRoom(courtID, date string) string {
	return fmt.Sprintf("court:%s:%s", courtID, date)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// disconnect tears a connection down: every lock it owns is released and
// broadcast as freed. This is the primary defense against locks leaking from
// crashed clients.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	if _, known := h.clients[c.ID]; !known {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	released, err := h.locks.ReleaseAll(ctx, c.ID)
	if err != nil {
		h.log.Error("Failed to release locks on disconnect", "connection_id", c.ID, "error", err)
	}
	for _, lock := range released {
		h.emitLockEvent(ctx, events.TypeSlotUnlocked, lock.Key, c, "")
	}

	c.close()
	h.log.Info("Realtime client disconnected", "connection_id", c.ID, "released_locks", len(released))
}

func (h *Hub) joinRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}

	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

// Publish implements events.Sink: each event is delivered once per client
// subscribed to any room the event scopes to.
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	msg := ServerMessage{
		Event:     string(evt.Type),
		CourtID:   evt.CourtID,
		Date:      evt.Date,
		TimeSlots: evt.TimeSlots,
		UserID:    evt.UserID,
		BookingID: evt.BookingID,
		Code:      evt.Code,
	}
	if len(evt.TimeSlots) == 1 {
		msg.TimeSlot = evt.TimeSlots[0]
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", evt.Type, err)
	}

	var rooms []string
	if evt.FacilityID != "" {
		rooms = append(rooms, facilityRoom(evt.FacilityID))
	}
	if evt.CourtID != "" && evt.Date != "" {
		rooms = append(rooms, courtRoom(evt.CourtID, evt.Date))
	}

	h.mu.RLock()
	recipients := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if c.ID == evt.Origin {
				continue
			}
			recipients[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range recipients {
		c.enqueue(data)
	}
	return nil
}

func (h *Hub) handleMessage(c *Client, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("malformed message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch msg.Action {
	case ActionJoin:
		h.handleJoin(ctx, c, msg)
	case ActionLock:
		h.handleLock(ctx, c, msg)
	case ActionUnlock:
		h.handleUnlock(ctx, c, msg)
	case ActionUnlockAll:
		h.handleUnlockAll(ctx, c, msg)
	case ActionConfirm:
		h.handleConfirm(ctx, c, msg)
	default:
		c.sendError(fmt.Sprintf("unknown action %q", msg.Action))
	}
}

// handleJoin subscribes the client and immediately pushes the current lock
// state so the UI is correct before the next mutation event arrives.
func (h *Hub) handleJoin(ctx context.Context, c *Client, msg ClientMessage) {
	if msg.FacilityID == "" && (msg.CourtID == "" || msg.Date == "") {
		c.sendError("join requires facilityId or courtId and date")
		return
	}

	if msg.FacilityID != "" {
		h.joinRoom(c, facilityRoom(msg.FacilityID))
	}

	if msg.CourtID != "" && msg.Date != "" {
		date, err := lockreg.NormalizeDate(msg.Date)
		if err != nil {
			c.sendError("invalid date")
			return
		}
		h.joinRoom(c, courtRoom(msg.CourtID, date))

		locks, err := h.locks.ListActive(ctx, msg.CourtID, date)
		if err != nil {
			h.log.Error("Failed to list active locks", "court_id", msg.CourtID, "error", err)
			return
		}
		c.sendMessage(ServerMessage{
			Event:   EventLockState,
			CourtID: msg.CourtID,
			Date:    date,
			Locks:   lockStates(locks, c.ID),
		})
	}
}

func (h *Hub) handleLock(ctx context.Context, c *Client, msg ClientMessage) {
	key, ok := h.slotKey(c, msg)
	if !ok {
		return
	}

	// The court must exist before the lock table is touched; otherwise any
	// made-up ID would happily collect locks.
	court, err := h.courts.FindByID(ctx, key.CourtID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrCourtNotFound) || errors.Is(err, bookingerrors.ErrInvalidID) {
			c.sendError("unknown court")
			return
		}
		h.log.Error("Court lookup failed", "court_id", key.CourtID, "error", err)
		c.sendError("could not verify court")
		return
	}
	if !court.Active {
		c.sendError("court is not accepting bookings")
		return
	}

	// A slot with a persisted blocking booking is refused before the lock
	// table is even consulted.
	available, _, err := h.bookings.IsAvailable(ctx, key.CourtID, key.Date, []string{key.TimeSlot}, nil, nil)
	if err != nil {
		h.log.Error("Availability check failed", "court_id", key.CourtID, "error", err)
		c.sendError("could not verify availability")
		return
	}
	if !available {
		c.sendError("already booked")
		return
	}

	lock, err := h.locks.Acquire(ctx, key, c.ID, c.UserID)
	if err != nil {
		if err == lockreg.ErrSlotHeld {
			c.sendError("held by another party")
			return
		}
		h.log.Error("Lock acquire failed", "key", key.String(), "error", err)
		c.sendError("could not acquire lock")
		return
	}

	h.emitLockEvent(ctx, events.TypeSlotLocked, lock.Key, c, msg.FacilityID)

	// Direct ack; room broadcasts only reach subscribers.
	c.sendMessage(ServerMessage{
		Event:    EventLockGranted,
		CourtID:  lock.Key.CourtID,
		Date:     lock.Key.Date,
		TimeSlot: lock.Key.TimeSlot,
	})
}

func (h *Hub) handleUnlock(ctx context.Context, c *Client, msg ClientMessage) {
	key, ok := h.slotKey(c, msg)
	if !ok {
		return
	}

	released, err := h.locks.Release(ctx, key, c.ID)
	if err != nil {
		h.log.Error("Lock release failed", "key", key.String(), "error", err)
		c.sendError("could not release lock")
		return
	}
	if !released {
		c.sendError("no lock held on that slot")
		return
	}

	h.emitLockEvent(ctx, events.TypeSlotUnlocked, key, c, msg.FacilityID)

	c.sendMessage(ServerMessage{
		Event:    EventLockReleased,
		CourtID:  key.CourtID,
		Date:     key.Date,
		TimeSlot: key.TimeSlot,
	})
}

func (h *Hub) handleUnlockAll(ctx context.Context, c *Client, msg ClientMessage) {
	released, err := h.locks.ReleaseAll(ctx, c.ID)
	if err != nil {
		h.log.Error("Bulk release failed", "connection_id", c.ID, "error", err)
		c.sendError("could not release locks")
		return
	}

	slots := make([]string, 0, len(released))
	for _, lock := range released {
		h.emitLockEvent(ctx, events.TypeSlotUnlocked, lock.Key, c, msg.FacilityID)
		slots = append(slots, lock.Key.TimeSlot)
	}

	c.sendMessage(ServerMessage{
		Event:     EventLockReleased,
		TimeSlots: slots,
	})
}

// handleConfirm turns the client's held locks into a persisted booking.
// Every requested slot must still be locked by this connection; a lapsed or
// stolen lock rejects the whole confirmation with no partial booking.
func (h *Hub) handleConfirm(ctx context.Context, c *Client, msg ClientMessage) {
	date, err := lockreg.NormalizeDate(msg.Date)
	if err != nil {
		c.sendError("invalid date")
		return
	}
	if msg.CourtID == "" || len(msg.TimeSlots) == 0 {
		c.sendError("confirm requires courtId, date and timeSlots")
		return
	}

	keys := make([]model.SlotKey, 0, len(msg.TimeSlots))
	for _, slot := range msg.TimeSlots {
		key := model.SlotKey{CourtID: msg.CourtID, Date: date, TimeSlot: slot}
		lock, held := h.locks.Get(ctx, key)
		if !held || lock.OwnerID != c.ID {
			c.sendError(fmt.Sprintf("lock on %s lapsed or is held by another party", slot))
			return
		}
		keys = append(keys, key)
	}

	booking := &model.Booking{
		UserID:        c.UserID,
		CourtID:       msg.CourtID,
		Date:          date,
		TimeSlots:     msg.TimeSlots,
		TotalAmount:   msg.TotalAmount,
		PaymentMethod: msg.PaymentMethod,
		ContactName:   msg.ContactName,
		ContactPhone:  msg.ContactPhone,
	}
	if booking.PaymentMethod == "" {
		booking.PaymentMethod = model.PaymentMethodOnline
	}

	if err := h.bookings.Create(ctx, booking); err != nil {
		// The attempt is over either way; holding the locks until natural
		// expiry would strand the slots.
		h.releaseKeys(ctx, c, keys, msg.FacilityID)

		c.sendError(apperrors.AsAppError(err).Message)
		return
	}

	for _, key := range keys {
		if _, err := h.locks.Release(ctx, key, c.ID); err != nil {
			h.log.Warn("Failed to release lock after confirm", "key", key.String(), "error", err)
		}
	}

	evt := events.New(events.TypeSlotConfirmed)
	evt.FacilityID = booking.FacilityID
	evt.CourtID = booking.CourtID
	evt.Date = booking.Date
	evt.TimeSlots = booking.TimeSlots
	evt.UserID = booking.UserID
	evt.BookingID = booking.ID
	evt.Code = booking.Code
	evt.Origin = c.ID
	if err := h.sink.Publish(ctx, evt); err != nil {
		h.log.Warn("Failed to publish confirm event", "booking_id", booking.ID, "error", err)
	}

	// Direct ack so the confirming client gets the booking code even when
	// it never joined a room.
	c.sendMessage(ServerMessage{
		Event:     string(events.TypeSlotConfirmed),
		CourtID:   booking.CourtID,
		Date:      booking.Date,
		TimeSlots: booking.TimeSlots,
		BookingID: booking.ID,
		Code:      booking.Code,
	})
}

func (h *Hub) releaseKeys(ctx context.Context, c *Client, keys []model.SlotKey, facilityID string) {
	for _, key := range keys {
		released, err := h.locks.Release(ctx, key, c.ID)
		if err != nil {
			h.log.Warn("Compensating release failed", "key", key.String(), "error", err)
			continue
		}
		if released {
			h.emitLockEvent(ctx, events.TypeSlotUnlocked, key, c, facilityID)
		}
	}
}

func (h *Hub) slotKey(c *Client, msg ClientMessage) (model.SlotKey, bool) {
	date, err := lockreg.NormalizeDate(msg.Date)
	if err != nil {
		c.sendError("invalid date")
		return model.SlotKey{}, false
	}
	if msg.CourtID == "" {
		c.sendError("courtId is required")
		return model.SlotKey{}, false
	}
	if _, err := interval.ParseSlot(msg.TimeSlot); err != nil {
		c.sendError("invalid time slot")
		return model.SlotKey{}, false
	}
	return model.SlotKey{CourtID: msg.CourtID, Date: date, TimeSlot: msg.TimeSlot}, true
}

func (h *Hub) emitLockEvent(ctx context.Context, t events.Type, key model.SlotKey, c *Client, facilityID string) {
	evt := events.New(t)
	evt.FacilityID = facilityID
	evt.CourtID = key.CourtID
	evt.Date = key.Date
	evt.TimeSlots = []string{key.TimeSlot}
	evt.UserID = c.UserID
	evt.Origin = c.ID

	if err := h.sink.Publish(ctx, evt); err != nil {
		h.log.Warn("Failed to publish lock event", "type", t, "key", key.String(), "error", err)
	}
}
