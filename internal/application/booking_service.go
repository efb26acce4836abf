package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/booking"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/internal/domain/quota"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/events"
	"go.uber.org/zap"
)

// CreateBookingRequest is the input of CreateBooking. UserID comes from the token for members.
type CreateBookingRequest struct {
	SessionID    uuid.UUID
	UserID       uuid.UUID
	MembershipID uuid.UUID
}

// CancelMode selects how a booking leaves a session.
type CancelMode int

const (
	// CancelByMember keeps the row with status CANCELLED. The actor must own the booking.
	CancelByMember CancelMode = iota
	// RemoveByAdmin deletes the row.
	RemoveByAdmin
)

// CancelBookingRequest is the input of CancelBooking. SessionID is optional and,
// when set, must match the booking's session.
type CancelBookingRequest struct {
	SessionID uuid.UUID
	BookingID uuid.UUID
	ActorID   uuid.UUID
	Mode      CancelMode
}

// CancelBookingResult reports whether a waitlisted booking took the freed seat.
type CancelBookingResult struct {
	Success             bool `json:"success"`
	WaitlistedConfirmed bool `json:"waitlistedConfirmed"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID             uuid.UUID `json:"id"`
	ClassSessionID uuid.UUID `json:"classSessionId"`
	UserID         uuid.UUID `json:"userId"`
	MembershipID   uuid.UUID `json:"membershipId"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProductRefDTO names the product behind a membership.
type ProductRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// EligibleMembershipDTO is a membership that can book the session.
// RemainingQuota is null for unlimited entitlements.
type EligibleMembershipDTO struct {
	ID             uuid.UUID     `json:"id"`
	Product        ProductRefDTO `json:"product"`
	RemainingQuota *int          `json:"remainingQuota"`
}

// EligibilityDTO answers whether a user can join a session and with which memberships.
type EligibilityDTO struct {
	CanJoin             bool                    `json:"canJoin"`
	AlreadyBooked       bool                    `json:"alreadyBooked"`
	EligibleMemberships []EligibleMembershipDTO `json:"eligibleMemberships"`
	Reason              string                  `json:"reason,omitempty"`
}

// ErrNoActiveMembership is reported by CheckEligibility when the user holds nothing bookable.
const ErrNoActiveMembership = "No active membership"

// BookingService runs the quota-aware booking and waitlist workflow.
type BookingService struct {
	tx          database.Transactor
	sessions    schedule.SessionRepository
	items       catalog.ItemRepository
	products    catalog.ProductRepository
	memberships membership.MembershipRepository
	bookings    booking.BookingRepository
	usages      quota.UsageRepository
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	tx database.Transactor,
	sessions schedule.SessionRepository,
	items catalog.ItemRepository,
	products catalog.ProductRepository,
	memberships membership.MembershipRepository,
	bookings booking.BookingRepository,
	usages quota.UsageRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:          tx,
		sessions:    sessions,
		items:       items,
		products:    products,
		memberships: memberships,
		bookings:    bookings,
		usages:      usages,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking books a seat, or a waitlist place when the session is full.
// A confirmed booking consumes one unit of the membership's quota.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	var created *booking.Booking

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.FindByIDForUpdate(ctx, req.SessionID)
		if err != nil {
			return err
		}
		if err := session.CheckOpen(); err != nil {
			return err
		}

		if err := s.ensureNotBooked(ctx, session.ID(), req.UserID); err != nil {
			return err
		}

		m, err := s.ownedMembership(ctx, req.MembershipID, req.UserID)
		if err != nil {
			return err
		}
		if err := m.CheckBookable(s.now()); err != nil {
			return err
		}

		pi, ledger, err := s.entitlement(ctx, m, session.ItemID())
		if err != nil {
			return err
		}
		if verdict := quota.Evaluate(pi, ledger); !verdict.Eligible {
			return domain.NewRuleViolation(verdict.Reason)
		}

		item, err := s.items.FindByID(ctx, session.ItemID())
		if err != nil {
			return err
		}
		confirmed, err := s.bookings.CountConfirmed(ctx, session.ID())
		if err != nil {
			return err
		}

		b := booking.NewBooking(session.ID(), req.UserID, m.ID(), confirmed < item.Capacity)
		if err := s.bookings.Save(ctx, b); err != nil {
			if isConflict(err) {
				return domain.NewRuleViolation(booking.ErrAlreadyBooked)
			}
			return err
		}
		if b.IsConfirmed() {
			if err := s.consume(ctx, m.ID(), pi); err != nil {
				return err
			}
		}

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := events.BookingWaitlisted
	if created.IsConfirmed() {
		eventType = events.BookingConfirmed
	}
	s.logger.Info("booking created",
		zap.String("booking_id", created.ID().String()),
		zap.String("session_id", created.ClassSessionID().String()),
		zap.String("membership_id", created.MembershipID().String()),
		zap.String("status", string(created.Status())),
	)
	events.PublishAfterCommit(ctx, s.publisher, s.logger, eventType, created.ID().String(), bookingEvent(created))

	dto := toBookingDTO(created)
	return &dto, nil
}

// CancelBooking cancels or removes a booking, refunds its quota when it held a seat
// and hands the seat to the oldest waitlisted booking if that booking is still eligible.
// Only that one candidate is considered.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (*CancelBookingResult, error) {
	var (
		cancelled *booking.Booking
		promoted  *booking.Booking
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if req.SessionID != uuid.Nil && b.ClassSessionID() != req.SessionID {
			return domain.NewNotFoundError("Booking", req.BookingID.String())
		}

		session, err := s.sessions.FindByIDForUpdate(ctx, b.ClassSessionID())
		if err != nil {
			return err
		}

		heldSeat := b.IsConfirmed()
		switch req.Mode {
		case CancelByMember:
			if b.UserID() != req.ActorID {
				return domain.NewForbiddenError("You can only cancel your own bookings")
			}
			if err := b.Cancel(); err != nil {
				return err
			}
			if err := s.bookings.Update(ctx, b); err != nil {
				return err
			}
		case RemoveByAdmin:
			if err := s.bookings.Delete(ctx, b.ID()); err != nil {
				return err
			}
		default:
			return domain.NewValidationError("mode", "unknown cancel mode")
		}
		cancelled = b

		if heldSeat {
			if err := s.release(ctx, b.MembershipID(), session.ItemID()); err != nil {
				return err
			}
		}

		if session.CheckOpen() != nil {
			return nil
		}
		promoted, err = s.promoteNext(ctx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", cancelled.ID().String()),
		zap.String("actor_id", req.ActorID.String()),
		zap.Bool("removed", req.Mode == RemoveByAdmin),
	)
	events.PublishAfterCommit(ctx, s.publisher, s.logger, events.BookingCancelled, cancelled.ID().String(), bookingEvent(cancelled))
	if promoted != nil {
		s.logger.Info("waitlisted booking promoted",
			zap.String("booking_id", promoted.ID().String()),
			zap.String("session_id", promoted.ClassSessionID().String()),
		)
		events.PublishAfterCommit(ctx, s.publisher, s.logger, events.BookingWaitlistPromoted, promoted.ID().String(), bookingEvent(promoted))
	}

	return &CancelBookingResult{Success: true, WaitlistedConfirmed: promoted != nil}, nil
}

// promoteNext confirms the oldest waitlisted booking when a seat is free and that booking
// can still book. It returns nil when nobody was promoted.
func (s *BookingService) promoteNext(ctx context.Context, session *schedule.ClassSession) (*booking.Booking, error) {
	item, err := s.items.FindByID(ctx, session.ItemID())
	if err != nil {
		return nil, err
	}
	confirmed, err := s.bookings.CountConfirmed(ctx, session.ID())
	if err != nil {
		return nil, err
	}
	if confirmed >= item.Capacity {
		return nil, nil
	}

	waiting, err := s.bookings.FindWaitlisted(ctx, session.ID())
	if err != nil {
		return nil, err
	}
	next := booking.NextInLine(waiting)
	if next == nil {
		return nil, nil
	}

	m, err := s.memberships.FindByIDForUpdate(ctx, next.MembershipID())
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !m.IsBookable(s.now()) {
		s.logger.Info("waitlist head not promoted: membership not bookable",
			zap.String("booking_id", next.ID().String()),
			zap.String("membership_status", string(m.Status())),
		)
		return nil, nil
	}

	pi, ledger, err := s.entitlement(ctx, m, session.ItemID())
	if err != nil {
		return nil, err
	}
	if verdict := quota.Evaluate(pi, ledger); !verdict.Eligible {
		s.logger.Info("waitlist head not promoted: not eligible",
			zap.String("booking_id", next.ID().String()),
			zap.String("reason", verdict.Reason),
		)
		return nil, nil
	}

	if err := next.Promote(); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, next); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, m.ID(), pi); err != nil {
		return nil, err
	}
	return next, nil
}

// CheckEligibility evaluates every bookable membership of the user against the session.
func (s *BookingService) CheckEligibility(ctx context.Context, sessionID, userID uuid.UUID) (*EligibilityDTO, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &EligibilityDTO{EligibleMemberships: []EligibleMembershipDTO{}}

	if _, err := s.bookings.FindActive(ctx, sessionID, userID); err == nil {
		result.AlreadyBooked = true
	} else if !domain.IsNotFound(err) {
		return nil, err
	}

	held, err := s.memberships.FindBookableByUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	membershipIDs := make([]uuid.UUID, len(held))
	productIDs := make([]uuid.UUID, len(held))
	for i, m := range held {
		membershipIDs[i] = m.ID()
		productIDs[i] = m.ProductID()
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	usages, err := s.usages.FindByMemberships(ctx, membershipIDs)
	if err != nil {
		return nil, err
	}

	var firstReason string
	for _, m := range held {
		product, ok := products[m.ProductID()]
		if !ok {
			continue
		}
		pi, _ := product.ItemFor(session.ItemID())
		verdict := quota.Evaluate(pi, quota.NewLedger(usages[m.ID()]))
		if !verdict.Eligible {
			if firstReason == "" {
				firstReason = verdict.Reason
			}
			continue
		}
		result.EligibleMemberships = append(result.EligibleMemberships, EligibleMembershipDTO{
			ID:             m.ID(),
			Product:        ProductRefDTO{ID: product.ID, Name: product.Name},
			RemainingQuota: verdict.Remaining,
		})
	}

	switch {
	case result.AlreadyBooked:
		result.Reason = booking.ErrAlreadyBooked
	case session.CheckOpen() != nil:
		result.Reason = schedule.ErrNotOpen
	case len(held) == 0:
		result.Reason = ErrNoActiveMembership
	case len(result.EligibleMemberships) == 0:
		result.Reason = firstReason
	default:
		result.CanJoin = true
	}
	return result, nil
}

// ListSessionBookings lists every booking of a session.
func (s *BookingService) ListSessionBookings(ctx context.Context, sessionID uuid.UUID) ([]BookingDTO, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.bookings.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(list), nil
}

// ListMyBookings lists a user's bookings, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	list, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(list), nil
}

// --- helpers ---

func (s *BookingService) ensureNotBooked(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := s.bookings.FindActive(ctx, sessionID, userID)
	switch {
	case err == nil:
		return domain.NewRuleViolation(booking.ErrAlreadyBooked)
	case domain.IsNotFound(err):
		return nil
	default:
		return err
	}
}

// ownedMembership loads and locks a membership, hiding other users' memberships as not found.
func (s *BookingService) ownedMembership(ctx context.Context, membershipID, userID uuid.UUID) (*membership.Membership, error) {
	m, err := s.memberships.FindByIDForUpdate(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if !m.BelongsTo(userID) {
		return nil, domain.NewNotFoundError("Membership", membershipID.String())
	}
	return m, nil
}

// entitlement returns the product item granting itemID to m (nil when not included) and m's ledger.
func (s *BookingService) entitlement(ctx context.Context, m *membership.Membership, itemID uuid.UUID) (*catalog.ProductItem, quota.Ledger, error) {
	product, err := s.products.FindByID(ctx, m.ProductID())
	if err != nil {
		return nil, nil, err
	}
	pi, _ := product.ItemFor(itemID)
	usages, err := s.usages.FindByMembership(ctx, m.ID())
	if err != nil {
		return nil, nil, err
	}
	return pi, quota.NewLedger(usages), nil
}

func (s *BookingService) consume(ctx context.Context, membershipID uuid.UUID, pi *catalog.ProductItem) error {
	if pi == nil {
		return nil
	}
	scope, ok := quota.ScopeFor(pi)
	if !ok {
		return nil
	}
	return s.usages.Increment(ctx, membershipID, scope)
}

func (s *BookingService) release(ctx context.Context, membershipID, itemID uuid.UUID) error {
	m, err := s.memberships.FindByID(ctx, membershipID)
	if err != nil {
		return err
	}
	product, err := s.products.FindByID(ctx, m.ProductID())
	if err != nil {
		return err
	}
	pi, ok := product.ItemFor(itemID)
	if !ok {
		return nil
	}
	scope, ok := quota.ScopeFor(pi)
	if !ok {
		return nil
	}
	return s.usages.Decrement(ctx, membershipID, scope)
}

func isConflict(err error) bool {
	domErr, ok := domain.AsDomainError(err)
	return ok && domErr.Err == domain.ErrConflict
}

func bookingEvent(b *booking.Booking) events.BookingEvent {
	return events.BookingEvent{
		BookingID:      b.ID(),
		ClassSessionID: b.ClassSessionID(),
		UserID:         b.UserID(),
		MembershipID:   b.MembershipID(),
		Status:         string(b.Status()),
		OccurredAt:     time.Now().UTC(),
	}
}

func toBookingDTO(b *booking.Booking) BookingDTO {
	return BookingDTO{
		ID:             b.ID(),
		ClassSessionID: b.ClassSessionID(),
		UserID:         b.UserID(),
		MembershipID:   b.MembershipID(),
		Status:         string(b.Status()),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

func toBookingDTOs(list []*booking.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(list))
	for i, b := range list {
		dtos[i] = toBookingDTO(b)
	}
	return dtos
}
