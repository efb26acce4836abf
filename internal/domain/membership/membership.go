package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// Status is the lifecycle state of a membership.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusFreezed   Status = "FREEZED"
	StatusSuspended Status = "SUSPENDED"
	StatusExpired   Status = "EXPIRED"
)

// Rule violations raised by the membership aggregate.
const (
	ErrNotActive     = "Membership is not active"
	ErrExpired       = "Membership has expired"
	ErrAlreadyFrozen = "Membership is already frozen"
	ErrNoExpiry      = "Membership has no expiration date"
)

// Membership is the aggregate root granting a user the entitlements of one product.
type Membership struct {
	id        uuid.UUID
	userID    uuid.UUID
	productID uuid.UUID
	status    Status
	joinDate  *time.Time
	expiredAt *time.Time
	createdAt time.Time
	updatedAt time.Time
}

// NewPending creates a membership awaiting payment.
func NewPending(userID, productID uuid.UUID) *Membership {
	now := time.Now().UTC()
	return &Membership{
		id:        uuid.New(),
		userID:    userID,
		productID: productID,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

// --- Getters ---

func (m *Membership) ID() uuid.UUID         { return m.id }
func (m *Membership) UserID() uuid.UUID     { return m.userID }
func (m *Membership) ProductID() uuid.UUID  { return m.productID }
func (m *Membership) Status() Status        { return m.status }
func (m *Membership) JoinDate() *time.Time  { return m.joinDate }
func (m *Membership) ExpiredAt() *time.Time { return m.expiredAt }
func (m *Membership) CreatedAt() time.Time  { return m.createdAt }
func (m *Membership) UpdatedAt() time.Time  { return m.updatedAt }

// BelongsTo reports whether userID owns the membership.
func (m *Membership) BelongsTo(userID uuid.UUID) bool {
	return m.userID == userID
}

// --- Behavior / State Transitions ---

// Activate starts a paid membership: joinDate is the payment time and it runs for durationDays.
func (m *Membership) Activate(paidAt time.Time, durationDays int) error {
	if m.status != StatusPending {
		return domain.NewInvalidStateError(string(m.status), string(StatusActive))
	}
	join := paidAt.UTC()
	expiry := join.AddDate(0, 0, durationDays)
	m.status = StatusActive
	m.joinDate = &join
	m.expiredAt = &expiry
	m.updatedAt = time.Now().UTC()
	return nil
}

// CheckBookable returns the first reason the membership cannot be booked against at now.
func (m *Membership) CheckBookable(now time.Time) error {
	if m.status != StatusActive {
		return domain.NewRuleViolation(ErrNotActive)
	}
	if m.expiredAt == nil || !m.expiredAt.After(now) {
		return domain.NewRuleViolation(ErrExpired)
	}
	return nil
}

// IsBookable is CheckBookable as a predicate.
func (m *Membership) IsBookable(now time.Time) bool {
	return m.CheckBookable(now) == nil
}

// Freeze marks the membership frozen and moves its expiry to newExpiredAt.
func (m *Membership) Freeze(newExpiredAt time.Time) error {
	if m.status == StatusFreezed {
		return domain.NewRuleViolation(ErrAlreadyFrozen)
	}
	if m.expiredAt == nil {
		return domain.NewRuleViolation(ErrNoExpiry)
	}
	expiry := newExpiredAt.UTC()
	m.status = StatusFreezed
	m.expiredAt = &expiry
	m.updatedAt = time.Now().UTC()
	return nil
}

// Unfreeze returns a frozen membership to active. The extended expiry is kept.
func (m *Membership) Unfreeze() error {
	if m.status != StatusFreezed {
		return domain.NewInvalidStateError(string(m.status), string(StatusActive))
	}
	m.status = StatusActive
	m.updatedAt = time.Now().UTC()
	return nil
}

// --- Reconstitution ---

// Reconstitute rebuilds a Membership from persisted data.
func Reconstitute(
	id, userID, productID uuid.UUID,
	status Status,
	joinDate, expiredAt *time.Time,
	createdAt, updatedAt time.Time,
) *Membership {
	return &Membership{
		id:        id,
		userID:    userID,
		productID: productID,
		status:    status,
		joinDate:  joinDate,
		expiredAt: expiredAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}
