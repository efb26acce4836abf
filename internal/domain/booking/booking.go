package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// Status represents the state of a booking.
type Status string

const (
	StatusConfirmed  Status = "CONFIRMED"
	StatusWaitlisted Status = "WAITLISTED"
	StatusCancelled  Status = "CANCELLED"
	StatusCompleted  Status = "COMPLETED"
	StatusNoShow     Status = "NO_SHOW"
)

// ErrAlreadyBooked is reported when a user books the same session twice.
const ErrAlreadyBooked = "User already has a booking for this session"

// Booking is a user's seat, or place in line, for one class session.
type Booking struct {
	id             uuid.UUID
	classSessionID uuid.UUID
	userID         uuid.UUID
	membershipID   uuid.UUID
	status         Status
	createdAt      time.Time
	updatedAt      time.Time
}

// NewBooking creates a CONFIRMED booking when a seat is free, otherwise a WAITLISTED one.
func NewBooking(sessionID, userID, membershipID uuid.UUID, seatAvailable bool) *Booking {
	now := time.Now().UTC()
	status := StatusWaitlisted
	if seatAvailable {
		status = StatusConfirmed
	}
	return &Booking{
		id:             uuid.New(),
		classSessionID: sessionID,
		userID:         userID,
		membershipID:   membershipID,
		status:         status,
		createdAt:      now,
		updatedAt:      now,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID             { return b.id }
func (b *Booking) ClassSessionID() uuid.UUID { return b.classSessionID }
func (b *Booking) UserID() uuid.UUID         { return b.userID }
func (b *Booking) MembershipID() uuid.UUID   { return b.membershipID }
func (b *Booking) Status() Status            { return b.status }
func (b *Booking) CreatedAt() time.Time      { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time      { return b.updatedAt }

// IsConfirmed reports whether the booking holds a seat.
func (b *Booking) IsConfirmed() bool { return b.status == StatusConfirmed }

// --- Behavior / State Transitions ---

// Promote moves a waitlisted booking into a freed seat.
func (b *Booking) Promote() error {
	if b.status != StatusWaitlisted {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel releases a confirmed seat or leaves the waitlist.
func (b *Booking) Cancel() error {
	if b.status != StatusConfirmed && b.status != StatusWaitlisted {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.updatedAt = time.Now().UTC()
	return nil
}

// --- Reconstitution ---

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id, classSessionID, userID, membershipID uuid.UUID,
	status Status,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		classSessionID: classSessionID,
		userID:         userID,
		membershipID:   membershipID,
		status:         status,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}
