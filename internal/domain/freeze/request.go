package freeze

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// Status is the state of a freeze request.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCompleted       Status = "COMPLETED"
)

// ErrNotPending is reported when reviewing a request that was already decided.
const ErrNotPending = "Freeze request is not pending approval"

// Request is a member's ask to pause a membership, decided by an admin.
type Request struct {
	id              uuid.UUID
	membershipID    uuid.UUID
	requestedBy     uuid.UUID
	reason          string
	status          Status
	freezeStartDate *time.Time
	freezeEndDate   *time.Time
	totalFrozenDays *int
	approvedByID    *uuid.UUID
	rejectionReason string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewRequest creates a request awaiting approval.
func NewRequest(membershipID, requestedBy uuid.UUID, reason string) *Request {
	now := time.Now().UTC()
	return &Request{
		id:           uuid.New(),
		membershipID: membershipID,
		requestedBy:  requestedBy,
		reason:       reason,
		status:       StatusPendingApproval,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *Request) ID() uuid.UUID               { return r.id }
func (r *Request) MembershipID() uuid.UUID     { return r.membershipID }
func (r *Request) RequestedBy() uuid.UUID      { return r.requestedBy }
func (r *Request) Reason() string              { return r.reason }
func (r *Request) Status() Status              { return r.status }
func (r *Request) FreezeStartDate() *time.Time { return r.freezeStartDate }
func (r *Request) FreezeEndDate() *time.Time   { return r.freezeEndDate }
func (r *Request) TotalFrozenDays() *int       { return r.totalFrozenDays }
func (r *Request) ApprovedByID() *uuid.UUID    { return r.approvedByID }
func (r *Request) RejectionReason() string     { return r.rejectionReason }
func (r *Request) CreatedAt() time.Time        { return r.createdAt }
func (r *Request) UpdatedAt() time.Time        { return r.updatedAt }

// CheckPending fails unless the request still awaits a decision.
func (r *Request) CheckPending() error {
	if r.status != StatusPendingApproval {
		return domain.NewRuleViolation(ErrNotPending)
	}
	return nil
}

// Approve records the admin's decision and the resolved freeze window.
func (r *Request) Approve(adminID uuid.UUID, start, end time.Time, totalDays int) error {
	if err := r.CheckPending(); err != nil {
		return err
	}
	start, end = start.UTC(), end.UTC()
	r.status = StatusApproved
	r.freezeStartDate = &start
	r.freezeEndDate = &end
	r.totalFrozenDays = &totalDays
	r.approvedByID = &adminID
	r.updatedAt = time.Now().UTC()
	return nil
}

// Reject closes the request without touching the membership.
func (r *Request) Reject(reason string) error {
	if err := r.CheckPending(); err != nil {
		return err
	}
	r.status = StatusRejected
	r.rejectionReason = reason
	r.updatedAt = time.Now().UTC()
	return nil
}

// IsDue reports whether an approved freeze has run its course at now.
func (r *Request) IsDue(now time.Time) bool {
	return r.status == StatusApproved && r.freezeEndDate != nil && !r.freezeEndDate.After(now)
}

// Complete ends an approved freeze.
func (r *Request) Complete() error {
	if r.status != StatusApproved {
		return domain.NewInvalidStateError(string(r.status), string(StatusCompleted))
	}
	r.status = StatusCompleted
	r.updatedAt = time.Now().UTC()
	return nil
}

// Reconstitute rebuilds a Request from persisted data.
func Reconstitute(
	id, membershipID, requestedBy uuid.UUID,
	reason string,
	status Status,
	freezeStartDate, freezeEndDate *time.Time,
	totalFrozenDays *int,
	approvedByID *uuid.UUID,
	rejectionReason string,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:              id,
		membershipID:    membershipID,
		requestedBy:     requestedBy,
		reason:          reason,
		status:          status,
		freezeStartDate: freezeStartDate,
		freezeEndDate:   freezeEndDate,
		totalFrozenDays: totalFrozenDays,
		approvedByID:    approvedByID,
		rejectionReason: rejectionReason,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// RequestRepository defines the persistence contract for freeze requests.
type RequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// List returns requests newest first, filtered by status when status is non-nil.
	List(ctx context.Context, status *Status) ([]*Request, error)
	// FindDue returns APPROVED requests whose end date is at or before now.
	FindDue(ctx context.Context, now time.Time) ([]*Request, error)
	HasPending(ctx context.Context, membershipID uuid.UUID) (bool, error)
	Save(ctx context.Context, r *Request) error
	Update(ctx context.Context, r *Request) error
}
