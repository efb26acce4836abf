package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// SessionStatus is the lifecycle state of a class session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionCompleted SessionStatus = "COMPLETED"
)

const clockLayout = "15:04"

// ErrNotOpen is reported when booking a session that is not scheduled.
const ErrNotOpen = "Class session is not open for booking"

// ClassSession is one scheduled occurrence of a class type.
type ClassSession struct {
	id        uuid.UUID
	itemID    uuid.UUID
	date      time.Time
	startTime string
	endTime   string
	status    SessionStatus
	createdAt time.Time
	updatedAt time.Time
}

// NewClassSession schedules itemID on date between start and end ("HH:MM", 24h).
func NewClassSession(itemID uuid.UUID, date time.Time, startTime, endTime string) (*ClassSession, error) {
	start, err := time.Parse(clockLayout, startTime)
	if err != nil {
		return nil, domain.NewValidationError("startTime", "startTime must be HH:MM")
	}
	end, err := time.Parse(clockLayout, endTime)
	if err != nil {
		return nil, domain.NewValidationError("endTime", "endTime must be HH:MM")
	}
	if !end.After(start) {
		return nil, domain.NewValidationError("endTime", "endTime must be after startTime")
	}

	now := time.Now().UTC()
	return &ClassSession{
		id:        uuid.New(),
		itemID:    itemID,
		date:      DateOnly(date),
		startTime: startTime,
		endTime:   endTime,
		status:    SessionScheduled,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// DateOnly truncates t to midnight UTC of its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ClassSession) ID() uuid.UUID         { return s.id }
func (s *ClassSession) ItemID() uuid.UUID     { return s.itemID }
func (s *ClassSession) Date() time.Time       { return s.date }
func (s *ClassSession) StartTime() string     { return s.startTime }
func (s *ClassSession) EndTime() string       { return s.endTime }
func (s *ClassSession) Status() SessionStatus { return s.status }
func (s *ClassSession) CreatedAt() time.Time  { return s.createdAt }
func (s *ClassSession) UpdatedAt() time.Time  { return s.updatedAt }

// CheckOpen fails unless the session accepts bookings.
func (s *ClassSession) CheckOpen() error {
	if s.status != SessionScheduled {
		return domain.NewRuleViolation(ErrNotOpen)
	}
	return nil
}

// ChangeStatus moves a scheduled session to CANCELLED or COMPLETED.
func (s *ClassSession) ChangeStatus(to SessionStatus) error {
	if s.status != SessionScheduled || (to != SessionCancelled && to != SessionCompleted) {
		return domain.NewInvalidStateError(string(s.status), string(to))
	}
	s.status = to
	s.updatedAt = time.Now().UTC()
	return nil
}

// Reconstitute rebuilds a ClassSession from persisted data.
func Reconstitute(
	id, itemID uuid.UUID,
	date time.Time,
	startTime, endTime string,
	status SessionStatus,
	createdAt, updatedAt time.Time,
) *ClassSession {
	return &ClassSession{
		id:        id,
		itemID:    itemID,
		date:      date,
		startTime: startTime,
		endTime:   endTime,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// SessionRepository defines the persistence contract for class sessions.
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ClassSession, error)
	// FindByIDForUpdate loads the session and locks its row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ClassSession, error)
	List(ctx context.Context, from, to time.Time) ([]*ClassSession, error)
	Save(ctx context.Context, s *ClassSession) error
	Update(ctx context.Context, s *ClassSession) error
}
