package model

import "fmt"

// BookingSequence is a per-day monotonically increasing counter used to
// mint human-readable booking codes. One document per calendar day, keyed
// by YYYYMMDD.
type BookingSequence struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// BookingCode formats a booking code from a day key and sequence number,
// e.g. BK-20240610-0042.
func BookingCode(dayKey string, seq int64) string {
	return fmt.Sprintf("BK-%s-%04d", dayKey, seq)
}
