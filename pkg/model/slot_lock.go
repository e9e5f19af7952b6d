package model

import (
	"fmt"
	"time"
)

// SlotKey identifies a lockable unit: one court, one local calendar day,
// one time-slot label.
type SlotKey struct {
	CourtID  string `json:"court_id"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.CourtID, k.Date, k.TimeSlot)
}

// SlotLock is a transient exclusive claim on a slot. Locks live only in
// process memory and are never persisted.
type SlotLock struct {
	Key       SlotKey   `json:"key"`
	OwnerID   string    `json:"owner_id"`
	UserID    string    `json:"user_id,omitempty"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (l *SlotLock) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
