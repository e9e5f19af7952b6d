// Package lockreg implements the in-memory slot lock registry. A lock marks
// a (court, date, time slot) triple as held by a single owner while the user
// walks through the booking flow; it is advisory and never persisted.
package lockreg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtbook/pkg/model"
)

var (
	// ErrSlotHeld is returned when the slot is locked by a different owner.
	ErrSlotHeld = errors.New("slot is held by another owner")
)

// Store is the lock registry contract. The in-memory implementation is the
// only one today; the interface keeps the door open for a shared store when
// the service runs more than one replica.
type Store interface {
	// Acquire takes the lock, or refreshes it when the same owner already
	// holds it. Returns ErrSlotHeld when a different owner holds an
	// unexpired lock.
	Acquire(ctx context.Context, key model.SlotKey, ownerID, userID string) (*model.SlotLock, error)

	// Release drops the lock when ownerID holds it. Releasing a lock that
	// is absent or held by someone else is a no-op; the return value
	// reports whether a lock was actually removed.
	Release(ctx context.Context, key model.SlotKey, ownerID string) (bool, error)

	// ReleaseAll drops every lock held by ownerID and returns the released
	// locks so callers can broadcast the freed slots.
	ReleaseAll(ctx context.Context, ownerID string) ([]model.SlotLock, error)

	// Get returns the unexpired lock for key, if any.
	Get(ctx context.Context, key model.SlotKey) (*model.SlotLock, bool)

	// ListActive returns all unexpired locks for a court and date.
	ListActive(ctx context.Context, courtID, date string) ([]model.SlotLock, error)

	// Len reports the number of unexpired locks across all courts.
	Len() int
}

// NormalizeDate canonicalizes a booking date to "YYYY-MM-DD" so the same
// calendar day always produces the same lock key. Full timestamps are
// truncated to their date part.
func NormalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fmt.Errorf("empty date")
	}

	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format("2006-01-02"), nil
	}

	return "", fmt.Errorf("invalid date %q", date)
}
