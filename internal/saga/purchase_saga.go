package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/adapter"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/events"
	"go.uber.org/zap"
)

// ErrProductUnavailable is reported when purchasing an inactive product.
const ErrProductUnavailable = "Product is not available for purchase"

// PurchaseResult is what a successful purchase saga produced.
type PurchaseResult struct {
	Membership  *membership.Membership
	Transaction *payment.Transaction
}

// PurchaseSagaService orchestrates the membership purchase saga.
type PurchaseSagaService struct {
	tx          database.Transactor
	products    catalog.ProductRepository
	memberships membership.MembershipRepository
	payments    payment.TransactionRepository
	gateway     adapter.PaymentGateway
	publisher   events.Publisher
	currency    string
	logger      *zap.Logger
}

// NewPurchaseSagaService creates a new PurchaseSagaService.
func NewPurchaseSagaService(
	tx database.Transactor,
	products catalog.ProductRepository,
	memberships membership.MembershipRepository,
	payments payment.TransactionRepository,
	gateway adapter.PaymentGateway,
	publisher events.Publisher,
	currency string,
	logger *zap.Logger,
) *PurchaseSagaService {
	return &PurchaseSagaService{
		tx:          tx,
		products:    products,
		memberships: memberships,
		payments:    payments,
		gateway:     gateway,
		publisher:   publisher,
		currency:    currency,
		logger:      logger,
	}
}

// Purchase records a pending membership and payment, opens a gateway checkout and
// announces the purchase. The membership activates later, when the payment settles.
func (s *PurchaseSagaService) Purchase(ctx context.Context, userID, productID uuid.UUID) (*PurchaseResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.NewRuleViolation(ErrProductUnavailable)
	}

	m := membership.NewPending(userID, product.ID)
	t := payment.NewTransaction(m.ID(), userID, product.PriceCents, s.currency)
	var token adapter.GatewayToken

	saga := NewSaga("purchase_membership", s.logger)

	saga.AddStep(SagaStep{
		Name: "save_membership_and_payment",
		Execute: func(ctx context.Context) error {
			return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := s.memberships.Save(ctx, m); err != nil {
					return err
				}
				return s.payments.Save(ctx, t)
			})
		},
		Compensate: func(ctx context.Context) error {
			if err := t.Fail("purchase aborted"); err != nil {
				return err
			}
			t.IncrementVersion()
			return s.payments.Update(ctx, t)
		},
	})

	saga.AddStep(SagaStep{
		Name: "create_gateway_transaction",
		Execute: func(ctx context.Context) error {
			var err error
			token, err = s.gateway.CreateTransaction(ctx, adapter.GatewayOrder{
				OrderID:     t.OrderID(),
				AmountCents: t.AmountCents(),
				Currency:    t.Currency(),
				CustomerID:  userID,
				ItemName:    product.Name,
			})
			return err
		},
		Compensate: func(ctx context.Context) error {
			if token.Token == "" {
				return nil
			}
			return s.gateway.CancelTransaction(ctx, t.OrderID())
		},
	})

	saga.AddStep(SagaStep{
		Name: "attach_gateway_token",
		Execute: func(ctx context.Context) error {
			if err := t.AttachGatewayToken(token.Token, token.RedirectURL); err != nil {
				return err
			}
			t.IncrementVersion()
			return s.payments.Update(ctx, t)
		},
	})

	saga.AddStep(SagaStep{
		Name: "publish_purchase_initiated_event",
		Execute: func(ctx context.Context) error {
			ce, err := events.New(events.MembershipPurchaseInitiated, m.ID().String(), events.MembershipEvent{
				MembershipID: m.ID(),
				UserID:       userID,
				ProductID:    product.ID,
				OrderID:      t.OrderID(),
				AmountCents:  t.AmountCents(),
				OccurredAt:   time.Now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("failed to create cloud event: %w", err)
			}
			return s.publisher.PublishEvent(ctx, events.TopicMembershipEvents, ce)
		},
	})

	if err := saga.Execute(ctx); err != nil {
		events.PublishAfterCommit(ctx, s.publisher, s.logger, events.MembershipPurchaseFailed, m.ID().String(), events.MembershipEvent{
			MembershipID: m.ID(),
			UserID:       userID,
			ProductID:    product.ID,
			OrderID:      t.OrderID(),
			Reason:       err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		return nil, err
	}

	return &PurchaseResult{Membership: m, Transaction: t}, nil
}
