package booking

import (
	"bytes"
	"slices"
)

// WaitlistOrder orders bookings first come, first served: earlier createdAt first,
// ties broken by ID so the order is total.
func WaitlistOrder(a, b *Booking) int {
	if c := a.createdAt.Compare(b.createdAt); c != 0 {
		return c
	}
	return bytes.Compare(a.id[:], b.id[:])
}

// NextInLine returns the oldest WAITLISTED booking, or nil if there is none.
func NextInLine(bookings []*Booking) *Booking {
	var waiting []*Booking
	for _, b := range bookings {
		if b.status == StatusWaitlisted {
			waiting = append(waiting, b)
		}
	}
	if len(waiting) == 0 {
		return nil
	}
	return slices.MinFunc(waiting, WaitlistOrder)
}
