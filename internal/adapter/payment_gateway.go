package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayOrder is what the payment gateway needs to open a checkout.
type GatewayOrder struct {
	OrderID     string
	AmountCents int64
	Currency    string
	CustomerID  uuid.UUID
	ItemName    string
}

// GatewayToken is the checkout handle returned by the gateway.
type GatewayToken struct {
	Token       string
	RedirectURL string
}

// PaymentGateway is the anti-corruption layer in front of the hosted payment page provider.
// Payment results arrive later as signed notifications, not through this interface.
type PaymentGateway interface {
	// CreateTransaction opens a checkout for the order and returns its token.
	CreateTransaction(ctx context.Context, order GatewayOrder) (GatewayToken, error)

	// CancelTransaction voids an unpaid checkout.
	CancelTransaction(ctx context.Context, orderID string) error
}

// MockPaymentGateway is a development/testing implementation of PaymentGateway.
// It issues tokens locally without calling the provider.
type MockPaymentGateway struct {
	baseURL string
	logger  *zap.Logger
}

// NewMockPaymentGateway creates a mock gateway whose redirect URLs point at baseURL.
func NewMockPaymentGateway(baseURL string, logger *zap.Logger) *MockPaymentGateway {
	return &MockPaymentGateway{baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// CreateTransaction returns a mock token and redirect URL.
func (m *MockPaymentGateway) CreateTransaction(ctx context.Context, order GatewayOrder) (GatewayToken, error) {
	token := fmt.Sprintf("snap_mock_%s", uuid.New().String()[:8])
	redirect := fmt.Sprintf("%s/snap/v2/vtweb/%s", m.baseURL, token)

	m.logger.Info("[MOCK GATEWAY] transaction created",
		zap.String("order_id", order.OrderID),
		zap.String("token", token),
		zap.Int64("amount_cents", order.AmountCents),
		zap.String("currency", order.Currency),
	)

	return GatewayToken{Token: token, RedirectURL: redirect}, nil
}

// CancelTransaction simulates voiding a checkout.
func (m *MockPaymentGateway) CancelTransaction(ctx context.Context, orderID string) error {
	m.logger.Info("[MOCK GATEWAY] transaction cancelled", zap.String("order_id", orderID))
	return nil
}
