package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/internal/saga"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/events"
	"go.uber.org/zap"
)

// ErrInvalidSignature is reported for notifications that fail the signature check.
const ErrInvalidSignature = "invalid notification signature"

// PurchaseMembershipRequest is the DTO for buying a membership product.
type PurchaseMembershipRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
}

// PurchaseDTO is returned after a purchase starts: the pending membership and where to pay.
type PurchaseDTO struct {
	Membership  MembershipDTO `json:"membership"`
	OrderID     string        `json:"orderId"`
	AmountCents int64         `json:"amountCents"`
	Currency    string        `json:"currency"`
	Token       string        `json:"token"`
	RedirectURL string        `json:"redirectUrl"`
}

// MembershipDTO is the API response DTO for memberships.
type MembershipDTO struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	Product   *ProductRefDTO `json:"product,omitempty"`
	ProductID uuid.UUID      `json:"productId"`
	Status    string         `json:"status"`
	JoinDate  *time.Time     `json:"joinDate,omitempty"`
	ExpiredAt *time.Time     `json:"expiredAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NotificationResult reports what a payment notification changed.
type NotificationResult struct {
	OrderID             string `json:"orderId"`
	Status              string `json:"status"`
	Applied             bool   `json:"applied"`
	MembershipActivated bool   `json:"membershipActivated"`
}

// MembershipService handles membership purchase, payment notifications and listing.
type MembershipService struct {
	tx          database.Transactor
	memberships membership.MembershipRepository
	products    catalog.ProductRepository
	payments    payment.TransactionRepository
	purchase    *saga.PurchaseSagaService
	publisher   events.Publisher
	serverKey   string
	logger      *zap.Logger
}

// NewMembershipService creates a new MembershipService. serverKey verifies gateway notifications.
func NewMembershipService(
	tx database.Transactor,
	memberships membership.MembershipRepository,
	products catalog.ProductRepository,
	payments payment.TransactionRepository,
	purchase *saga.PurchaseSagaService,
	publisher events.Publisher,
	serverKey string,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		tx:          tx,
		memberships: memberships,
		products:    products,
		payments:    payments,
		purchase:    purchase,
		publisher:   publisher,
		serverKey:   serverKey,
		logger:      logger,
	}
}

// PurchaseMembership starts a purchase of productID for userID.
func (s *MembershipService) PurchaseMembership(ctx context.Context, userID uuid.UUID, req PurchaseMembershipRequest) (*PurchaseDTO, error) {
	s.logger.Info("purchasing membership",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID.String()),
	)

	result, err := s.purchase.Purchase(ctx, userID, req.ProductID)
	if err != nil {
		s.logger.Error("failed to purchase membership",
			zap.String("failed_step", saga.FailedStep(err)),
			zap.Error(err),
		)
		return nil, err
	}

	t := result.Transaction
	return &PurchaseDTO{
		Membership:  toMembershipDTO(result.Membership, nil),
		OrderID:     t.OrderID(),
		AmountCents: t.AmountCents(),
		Currency:    t.Currency(),
		Token:       t.GatewayToken(),
		RedirectURL: t.GatewayRedirectURL(),
	}, nil
}

// HandlePaymentNotification applies a signed gateway notification. Repeated notifications
// for the same status change nothing. A PAID notification activates the membership.
func (s *MembershipService) HandlePaymentNotification(ctx context.Context, n payment.Notification) (*NotificationResult, error) {
	if !n.VerifySignature(s.serverKey) {
		s.logger.Warn("rejected payment notification with bad signature", zap.String("order_id", n.OrderID))
		return nil, domain.NewUnauthorizedError(ErrInvalidSignature)
	}

	status, ok := payment.MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if !ok {
		return nil, domain.NewValidationError("transaction_status", "unsupported transaction status").
			WithDetail("transaction_status", n.TransactionStatus)
	}

	result := &NotificationResult{OrderID: n.OrderID, Status: string(status)}
	var activated *membership.Membership

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.payments.FindByOrderID(ctx, n.OrderID)
		if err != nil {
			return err
		}

		changed, err := t.ApplyGatewayStatus(status, n.TransactionID, time.Now().UTC())
		if err != nil {
			s.logger.Warn("ignoring payment notification for settled transaction",
				zap.String("order_id", n.OrderID),
				zap.String("current_status", string(t.Status())),
				zap.String("notified_status", string(status)),
			)
			result.Status = string(t.Status())
			return nil
		}
		if !changed {
			return nil
		}
		result.Applied = true

		t.IncrementVersion()
		if err := s.payments.Update(ctx, t); err != nil {
			return err
		}

		if status != payment.StatusPaid {
			return nil
		}

		m, err := s.memberships.FindByID(ctx, t.MembershipID())
		if err != nil {
			return err
		}
		if m.Status() != membership.StatusPending {
			return nil
		}
		product, err := s.products.FindByID(ctx, m.ProductID())
		if err != nil {
			return err
		}
		if err := m.Activate(*t.PaidAt(), product.DurationDays); err != nil {
			return err
		}
		if err := s.memberships.Update(ctx, m); err != nil {
			return err
		}
		activated = m
		result.MembershipActivated = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment notification processed",
		zap.String("order_id", n.OrderID),
		zap.String("status", result.Status),
		zap.Bool("applied", result.Applied),
	)
	if activated != nil {
		events.PublishAfterCommit(ctx, s.publisher, s.logger, events.MembershipActivated, activated.ID().String(), events.MembershipEvent{
			MembershipID: activated.ID(),
			UserID:       activated.UserID(),
			ProductID:    activated.ProductID(),
			OrderID:      n.OrderID,
			ExpiredAt:    activated.ExpiredAt(),
			OccurredAt:   time.Now().UTC(),
		})
	}
	return result, nil
}

// ListMyMemberships lists a user's memberships with their product names.
func (s *MembershipService) ListMyMemberships(ctx context.Context, userID uuid.UUID) ([]MembershipDTO, error) {
	list, err := s.memberships.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(list))
	for i, m := range list {
		productIDs[i] = m.ProductID()
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	dtos := make([]MembershipDTO, len(list))
	for i, m := range list {
		dtos[i] = toMembershipDTO(m, products[m.ProductID()])
	}
	return dtos, nil
}

func toMembershipDTO(m *membership.Membership, product *catalog.Product) MembershipDTO {
	dto := MembershipDTO{
		ID:        m.ID(),
		UserID:    m.UserID(),
		ProductID: m.ProductID(),
		Status:    string(m.Status()),
		JoinDate:  m.JoinDate(),
		ExpiredAt: m.ExpiredAt(),
		CreatedAt: m.CreatedAt(),
	}
	if product != nil {
		dto.Product = &ProductRefDTO{ID: product.ID, Name: product.Name}
	}
	return dto
}
