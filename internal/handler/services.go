package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
)

// The handlers depend on these use case sets; the application services implement them.

type bookingUseCases interface {
	CreateBooking(ctx context.Context, req application.CreateBookingRequest) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, req application.CancelBookingRequest) (*application.CancelBookingResult, error)
	CheckEligibility(ctx context.Context, sessionID, userID uuid.UUID) (*application.EligibilityDTO, error)
	ListSessionBookings(ctx context.Context, sessionID uuid.UUID) ([]application.BookingDTO, error)
	ListMyBookings(ctx context.Context, userID uuid.UUID) ([]application.BookingDTO, error)
}

type freezeUseCases interface {
	RequestFreeze(ctx context.Context, userID, membershipID uuid.UUID, reason string) (*application.FreezeRequestDTO, error)
	ApproveFreeze(ctx context.Context, requestID, adminID uuid.UUID, d freeze.Duration) (*application.ApproveFreezeResult, error)
	RejectFreeze(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*application.FreezeRequestDTO, error)
	CompleteDueFreezes(ctx context.Context, now time.Time) (*application.CompleteDueResult, error)
	ListFreezeRequests(ctx context.Context, status *freeze.Status) ([]application.FreezeRequestDTO, error)
}

type catalogUseCases interface {
	CreateItem(ctx context.Context, req application.CreateItemRequest) (*application.ItemDTO, error)
	ListItems(ctx context.Context) ([]application.ItemDTO, error)
	CreateQuotaPool(ctx context.Context, req application.CreateQuotaPoolRequest) (*application.QuotaPoolDTO, error)
	ListQuotaPools(ctx context.Context) ([]application.QuotaPoolDTO, error)
	DeleteQuotaPool(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, req application.CreateProductRequest) (*application.ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*application.ProductDTO, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]application.ProductDTO, error)
}

type scheduleUseCases interface {
	CreateSession(ctx context.Context, req application.CreateSessionRequest) (*application.SessionDTO, error)
	GetSession(ctx context.Context, id uuid.UUID) (*application.SessionDTO, error)
	ListSessions(ctx context.Context, from, to time.Time) ([]application.SessionDTO, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status schedule.SessionStatus) (*application.SessionDTO, error)
}

type membershipUseCases interface {
	PurchaseMembership(ctx context.Context, userID uuid.UUID, req application.PurchaseMembershipRequest) (*application.PurchaseDTO, error)
	HandlePaymentNotification(ctx context.Context, n payment.Notification) (*application.NotificationResult, error)
	ListMyMemberships(ctx context.Context, userID uuid.UUID) ([]application.MembershipDTO, error)
}
