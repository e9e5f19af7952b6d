package realtime

import "courtbook/pkg/model"

// Client actions.
const (
	ActionJoin      = "join"
	ActionLock      = "lock"
	ActionUnlock    = "unlock"
	ActionUnlockAll = "unlock:all"
	ActionConfirm   = "confirm"
)

// Server events. Slot events mirror the event stream types; lock:state and
// error exist only on the socket.
const (
	EventLockState    = "lock:state"
	EventLockGranted  = "lock:granted"
	EventLockReleased = "lock:released"
	EventError        = "error"
)

// ClientMessage is everything a client can send. Action selects which fields
// matter.
type ClientMessage struct {
	Action     string   `json:"action"`
	FacilityID string   `json:"facilityId,omitempty"`
	CourtID    string   `json:"courtId,omitempty"`
	Date       string   `json:"date,omitempty"`
	TimeSlot   string   `json:"timeSlot,omitempty"`
	TimeSlots  []string `json:"timeSlots,omitempty"`

	// Booking details for confirm.
	TotalAmount   int64  `json:"totalAmount,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	ContactName   string `json:"contactName,omitempty"`
	ContactPhone  string `json:"contactPhone,omitempty"`
}

type ServerMessage struct {
	Event     string   `json:"event"`
	CourtID   string   `json:"courtId,omitempty"`
	Date      string   `json:"date,omitempty"`
	TimeSlot  string   `json:"timeSlot,omitempty"`
	TimeSlots []string `json:"timeSlots,omitempty"`
	UserID    string   `json:"userId,omitempty"`
	BookingID string   `json:"bookingId,omitempty"`
	Code      string   `json:"code,omitempty"`

	// Populated for lock:state.
	Locks []LockState `json:"locks,omitempty"`

	// Populated for error.
	Reason string `json:"reason,omitempty"`
}

// LockState is the wire shape of one active lock, pushed to newly joining
// observers.
type LockState struct {
	TimeSlot string `json:"timeSlot"`
	UserID   string `json:"userId"`
	Mine     bool   `json:"mine"`
}

func lockStates(locks []model.SlotLock, ownerID string) []LockState {
	states := make([]LockState, 0, len(locks))
	for _, l := range locks {
		states = append(states, LockState{
			TimeSlot: l.Key.TimeSlot,
			UserID:   l.UserID,
			Mine:     l.OwnerID == ownerID,
		})
	}
	return states
}
