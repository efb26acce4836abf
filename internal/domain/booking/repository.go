package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for Booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindActive returns the user's non-cancelled booking for a session, or a not found error.
	FindActive(ctx context.Context, sessionID, userID uuid.UUID) (*Booking, error)

	// CountConfirmed counts CONFIRMED bookings of a session.
	CountConfirmed(ctx context.Context, sessionID uuid.UUID) (int, error)

	// FindWaitlisted lists WAITLISTED bookings of a session.
	FindWaitlisted(ctx context.Context, sessionID uuid.UUID) ([]*Booking, error)

	// ListBySession lists every booking of a session.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Booking, error)

	// ListByUser lists every booking a user made, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists a status change.
	Update(ctx context.Context, b *Booking) error

	// Delete removes a booking row.
	Delete(ctx context.Context, id uuid.UUID) error
}
