// Package interval implements half-open time interval arithmetic for slot
// overlap decisions. All intervals are expressed in minutes since midnight of
// the booking date, which keeps fixed slot labels and flexible start/end
// bookings comparable on a single axis.
package interval

import (
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Interval is a half-open range [Start, End) in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// FullDay covers the whole booking date. Used as the fail-closed fallback
// when a booking's occupied window cannot be derived.
func FullDay() Interval {
	return Interval{Start: 0, End: minutesPerDay}
}

// Overlaps reports whether two half-open intervals share any instant.
// Adjacent intervals (A.End == B.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", formatMinutes(i.Start), formatMinutes(i.End))
}

// ParseSlot parses a fixed slot label of the form "HH:MM-HH:MM".
// End must be strictly after start; slots never span midnight.
func ParseSlot(slot string) (Interval, error) {
	parts := strings.Split(strings.TrimSpace(slot), "-")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("invalid slot label %q", slot)
	}

	start, err := parseMinutes(parts[0])
	if err != nil {
		return Interval{}, fmt.Errorf("invalid slot label %q: %w", slot, err)
	}
	end, err := parseMinutes(parts[1])
	if err != nil {
		return Interval{}, fmt.Errorf("invalid slot label %q: %w", slot, err)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("invalid slot label %q: end not after start", slot)
	}

	return Interval{Start: start, End: end}, nil
}

// FromSlots parses a list of fixed slot labels. The labels need not be
// contiguous or sorted.
func FromSlots(slots []string) ([]Interval, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("no slot labels")
	}

	intervals := make([]Interval, 0, len(slots))
	for _, slot := range slots {
		iv, err := ParseSlot(slot)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// FromRange converts absolute start/end instants to minutes since midnight
// of the start instant's date in loc. End must be after start and the range
// must stay within a single calendar day.
func FromRange(start, end time.Time, loc *time.Location) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("missing start or end time")
	}
	if !end.After(start) {
		return Interval{}, fmt.Errorf("end %v not after start %v", end, start)
	}

	localStart := start.In(loc)
	localEnd := end.In(loc)

	startMin := localStart.Hour()*60 + localStart.Minute()
	endMin := localEnd.Hour()*60 + localEnd.Minute()

	sameDay := localStart.Year() == localEnd.Year() &&
		localStart.YearDay() == localEnd.YearDay()
	if !sameDay {
		// Midnight end counts as the end of the start day.
		if endMin == 0 && localEnd.Sub(localStart) <= 24*time.Hour {
			endMin = minutesPerDay
		} else {
			return Interval{}, fmt.Errorf("range spans multiple days")
		}
	}
	if endMin <= startMin {
		return Interval{}, fmt.Errorf("end not after start within day")
	}

	return Interval{Start: startMin, End: endMin}, nil
}

// AnyOverlap reports whether any interval in a overlaps any interval in b.
func AnyOverlap(a, b []Interval) bool {
	for _, ia := range a {
		for _, ib := range b {
			if ia.Overlaps(ib) {
				return true
			}
		}
	}
	return false
}

// ParseDate parses a canonical YYYY-MM-DD booking date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	return t, nil
}

func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
