package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/events"
	"go.uber.org/zap"
)

// ErrFreezePending is reported when a membership already has a request awaiting approval.
const ErrFreezePending = "Membership already has a pending freeze request"

// RequestFreezeRequest is the DTO for asking to freeze a membership.
type RequestFreezeRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RejectFreezeRequest is the DTO for rejecting a freeze request.
type RejectFreezeRequest struct {
	RejectionReason string `json:"rejectionReason" binding:"max=500"`
}

// FreezeRequestDTO is the API response DTO for freeze requests.
type FreezeRequestDTO struct {
	ID              uuid.UUID  `json:"id"`
	MembershipID    uuid.UUID  `json:"membershipId"`
	RequestedBy     uuid.UUID  `json:"requestedBy"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	FreezeStartDate *time.Time `json:"freezeStartDate,omitempty"`
	FreezeEndDate   *time.Time `json:"freezeEndDate,omitempty"`
	TotalFrozenDays *int       `json:"totalFrozenDays,omitempty"`
	ApprovedByID    *uuid.UUID `json:"approvedById,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ApproveFreezeResult carries the decided request and the membership's new expiry.
type ApproveFreezeResult struct {
	Request      FreezeRequestDTO `json:"request"`
	NewExpiredAt time.Time        `json:"newExpiredAt"`
}

// CompleteDueResult reports how many freezes ended.
type CompleteDueResult struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// FreezeService runs the freeze request and approval workflow.
type FreezeService struct {
	tx          database.Transactor
	requests    freeze.RequestRepository
	memberships membership.MembershipRepository
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewFreezeService creates a new FreezeService.
func NewFreezeService(
	tx database.Transactor,
	requests freeze.RequestRepository,
	memberships membership.MembershipRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *FreezeService {
	return &FreezeService{
		tx:          tx,
		requests:    requests,
		memberships: memberships,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RequestFreeze files a freeze request for an active membership the user owns.
func (s *FreezeService) RequestFreeze(ctx context.Context, userID, membershipID uuid.UUID, reason string) (*FreezeRequestDTO, error) {
	var req *freeze.Request

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberships.FindByID(ctx, membershipID)
		if err != nil {
			return err
		}
		if !m.BelongsTo(userID) {
			return domain.NewNotFoundError("Membership", membershipID.String())
		}
		if m.Status() != membership.StatusActive {
			return domain.NewRuleViolation(membership.ErrNotActive)
		}

		pending, err := s.requests.HasPending(ctx, membershipID)
		if err != nil {
			return err
		}
		if pending {
			return domain.NewRuleViolation(ErrFreezePending)
		}

		req = freeze.NewRequest(membershipID, userID, reason)
		return s.requests.Save(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("freeze requested",
		zap.String("freeze_request_id", req.ID().String()),
		zap.String("membership_id", membershipID.String()),
	)
	dto := toFreezeRequestDTO(req)
	return &dto, nil
}

// ApproveFreeze freezes the membership starting now for the given duration and extends
// its expiry by the frozen days. The duration is validated before anything is read.
func (s *FreezeService) ApproveFreeze(ctx context.Context, requestID, adminID uuid.UUID, duration freeze.Duration) (*ApproveFreezeResult, error) {
	start := s.now()
	end, days, err := duration.Resolve(start)
	if err != nil {
		return nil, err
	}

	var (
		req       *freeze.Request
		newExpiry time.Time
	)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.CheckPending(); err != nil {
			return err
		}

		m, err := s.memberships.FindByID(ctx, req.MembershipID())
		if err != nil {
			return err
		}
		if m.Status() == membership.StatusFreezed {
			return domain.NewRuleViolation(membership.ErrAlreadyFrozen)
		}
		if m.ExpiredAt() == nil {
			return domain.NewRuleViolation(membership.ErrNoExpiry)
		}

		newExpiry = freeze.ExtendExpirationByFreezeDays(*m.ExpiredAt(), days)
		if err := m.Freeze(newExpiry); err != nil {
			return err
		}
		if err := s.memberships.Update(ctx, m); err != nil {
			return err
		}

		if err := req.Approve(adminID, start, end, days); err != nil {
			return err
		}
		return s.requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("freeze approved",
		zap.String("freeze_request_id", req.ID().String()),
		zap.String("membership_id", req.MembershipID().String()),
		zap.String("admin_id", adminID.String()),
		zap.Intp("total_frozen_days", req.TotalFrozenDays()),
		zap.Time("new_expired_at", newExpiry),
	)
	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.FreezeApproved, req.MembershipID().String(), events.FreezeEvent{
		FreezeRequestID: req.ID(),
		MembershipID:    req.MembershipID(),
		Status:          string(req.Status()),
		FreezeEndDate:   req.FreezeEndDate(),
		TotalFrozenDays: req.TotalFrozenDays(),
		NewExpiredAt:    &newExpiry,
		OccurredAt:      time.Now().UTC(),
	})

	return &ApproveFreezeResult{Request: toFreezeRequestDTO(req), NewExpiredAt: newExpiry}, nil
}

// RejectFreeze closes a pending request. The membership is untouched.
func (s *FreezeService) RejectFreeze(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*FreezeRequestDTO, error) {
	var req *freeze.Request

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Reject(reason); err != nil {
			return err
		}
		return s.requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("freeze rejected",
		zap.String("freeze_request_id", req.ID().String()),
		zap.String("admin_id", adminID.String()),
	)
	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.FreezeRejected, req.MembershipID().String(), events.FreezeEvent{
		FreezeRequestID: req.ID(),
		MembershipID:    req.MembershipID(),
		Status:          string(req.Status()),
		Reason:          reason,
		OccurredAt:      time.Now().UTC(),
	})

	dto := toFreezeRequestDTO(req)
	return &dto, nil
}

// CompleteDueFreezes ends every approved freeze whose end date is at or before now and
// reactivates the membership. Each request is completed in its own transaction.
func (s *FreezeService) CompleteDueFreezes(ctx context.Context, now time.Time) (*CompleteDueResult, error) {
	due, err := s.requests.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load due freezes: %w", err)
	}

	result := &CompleteDueResult{}
	var errs []error
	for _, req := range due {
		if err := s.completeOne(ctx, req.ID(), now); err != nil {
			s.logger.Error("failed to complete freeze",
				zap.String("freeze_request_id", req.ID().String()),
				zap.Error(err),
			)
			result.Failed++
			errs = append(errs, err)
			continue
		}
		result.Completed++
		events.PublishAfterCommit(ctx, s.publisher, s.logger, events.FreezeCompleted, req.MembershipID().String(), events.FreezeEvent{
			FreezeRequestID: req.ID(),
			MembershipID:    req.MembershipID(),
			Status:          string(freeze.StatusCompleted),
			OccurredAt:      time.Now().UTC(),
		})
	}

	s.logger.Info("due freezes processed",
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed),
	)
	return result, errors.Join(errs...)
}

func (s *FreezeService) completeOne(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.requests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.IsDue(now) {
			return nil
		}

		m, err := s.memberships.FindByID(ctx, req.MembershipID())
		if err != nil {
			return err
		}
		if m.Status() == membership.StatusFreezed {
			if err := m.Unfreeze(); err != nil {
				return err
			}
			if err := s.memberships.Update(ctx, m); err != nil {
				return err
			}
		}

		if err := req.Complete(); err != nil {
			return err
		}
		return s.requests.Update(ctx, req)
	})
}

// ListFreezeRequests lists requests newest first, optionally by status.
func (s *FreezeService) ListFreezeRequests(ctx context.Context, status *freeze.Status) ([]FreezeRequestDTO, error) {
	list, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, err
	}
	dtos := make([]FreezeRequestDTO, len(list))
	for i, r := range list {
		dtos[i] = toFreezeRequestDTO(r)
	}
	return dtos, nil
}

func toFreezeRequestDTO(r *freeze.Request) FreezeRequestDTO {
	return FreezeRequestDTO{
		ID:              r.ID(),
		MembershipID:    r.MembershipID(),
		RequestedBy:     r.RequestedBy(),
		Reason:          r.Reason(),
		Status:          string(r.Status()),
		FreezeStartDate: r.FreezeStartDate(),
		FreezeEndDate:   r.FreezeEndDate(),
		TotalFrozenDays: r.TotalFrozenDays(),
		ApprovedByID:    r.ApprovedByID(),
		RejectionReason: r.RejectionReason(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
}
