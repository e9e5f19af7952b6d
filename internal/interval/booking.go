package interval

import (
	"fmt"
	"time"

	"courtbook/pkg/model"
)

// OccupiedBy derives the intervals a booking occupies on its date. Fixed slot
// bookings yield one interval per slot label; flexible bookings yield a single
// interval from their start/end instants. When neither can be derived the
// booking is treated as blocking the entire day rather than being silently
// ignored, so bad data can never create a double booking.
func OccupiedBy(b *model.Booking, loc *time.Location) []Interval {
	if len(b.TimeSlots) > 0 {
		intervals, err := FromSlots(b.TimeSlots)
		if err == nil {
			return intervals
		}
		return []Interval{FullDay()}
	}

	if b.StartTime != nil && b.EndTime != nil {
		iv, err := FromRange(*b.StartTime, *b.EndTime, loc)
		if err == nil {
			return []Interval{iv}
		}
	}

	return []Interval{FullDay()}
}

// Span returns the absolute instants a booking occupies: for fixed slot
// bookings the earliest slot start and latest slot end on the booking date in
// loc, for flexible bookings the stored start/end pair.
func Span(b *model.Booking, loc *time.Location) (time.Time, time.Time, error) {
	if len(b.TimeSlots) > 0 {
		day, err := ParseDate(b.Date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		intervals, err := FromSlots(b.TimeSlots)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		first, last := intervals[0], intervals[0]
		for _, iv := range intervals[1:] {
			if iv.Start < first.Start {
				first = iv
			}
			if iv.End > last.End {
				last = iv
			}
		}

		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		return midnight.Add(time.Duration(first.Start) * time.Minute),
			midnight.Add(time.Duration(last.End) * time.Minute), nil
	}

	if b.StartTime != nil && b.EndTime != nil {
		return *b.StartTime, *b.EndTime, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("booking has neither slots nor a time range")
}

// Conflicts reports whether a requested set of intervals collides with any of
// the given bookings that currently block the court. Bookings that do not
// block (cancelled, expired holds) must be filtered out by the caller.
func Conflicts(requested []Interval, existing []*model.Booking, loc *time.Location) *model.Booking {
	for _, b := range existing {
		if AnyOverlap(requested, OccupiedBy(b, loc)) {
			return b
		}
	}
	return nil
}
