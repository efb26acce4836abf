package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// Status represents the state of a membership payment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// Transaction is the aggregate root for one membership purchase payment.
type Transaction struct {
	id                   uuid.UUID
	orderID              string
	membershipID         uuid.UUID
	userID               uuid.UUID
	amountCents          int64
	currency             string
	status               Status
	gatewayToken         string
	gatewayRedirectURL   string
	gatewayTransactionID string
	failureReason        string
	paidAt               *time.Time
	version              int64
	createdAt            time.Time
	updatedAt            time.Time
}

// NewTransaction creates a pending payment for a membership. The order ID is what the gateway sees.
func NewTransaction(membershipID, userID uuid.UUID, amountCents int64, currency string) *Transaction {
	now := time.Now().UTC()
	id := uuid.New()
	return &Transaction{
		id:           id,
		orderID:      fmt.Sprintf("MBR-%s-%s", now.Format("20060102"), strings.ToUpper(id.String()[:8])),
		membershipID: membershipID,
		userID:       userID,
		amountCents:  amountCents,
		currency:     currency,
		status:       StatusPending,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}
}

// --- Getters ---

func (t *Transaction) ID() uuid.UUID                { return t.id }
func (t *Transaction) OrderID() string              { return t.orderID }
func (t *Transaction) MembershipID() uuid.UUID      { return t.membershipID }
func (t *Transaction) UserID() uuid.UUID            { return t.userID }
func (t *Transaction) AmountCents() int64           { return t.amountCents }
func (t *Transaction) Currency() string             { return t.currency }
func (t *Transaction) Status() Status               { return t.status }
func (t *Transaction) GatewayToken() string         { return t.gatewayToken }
func (t *Transaction) GatewayRedirectURL() string   { return t.gatewayRedirectURL }
func (t *Transaction) GatewayTransactionID() string { return t.gatewayTransactionID }
func (t *Transaction) FailureReason() string        { return t.failureReason }
func (t *Transaction) PaidAt() *time.Time           { return t.paidAt }
func (t *Transaction) Version() int64               { return t.version }
func (t *Transaction) CreatedAt() time.Time         { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time         { return t.updatedAt }

// --- Behavior / State Transitions ---

// AttachGatewayToken stores the checkout token the gateway issued for this order.
func (t *Transaction) AttachGatewayToken(token, redirectURL string) error {
	if t.status != StatusPending {
		return domain.NewInvalidStateError(string(t.status), "token attached")
	}
	t.gatewayToken = token
	t.gatewayRedirectURL = redirectURL
	t.updatedAt = time.Now().UTC()
	return nil
}

// ApplyGatewayStatus moves the transaction to the status reported by the gateway.
// It reports whether anything changed, so repeated notifications are no-ops.
// Settled payments only move on to REFUNDED; other terminal states never move.
func (t *Transaction) ApplyGatewayStatus(to Status, gatewayTxID string, at time.Time) (bool, error) {
	if to == t.status {
		return false, nil
	}

	switch t.status {
	case StatusPending:
	case StatusPaid:
		if to != StatusRefunded {
			return false, domain.NewInvalidStateError(string(t.status), string(to))
		}
	default:
		return false, domain.NewInvalidStateError(string(t.status), string(to))
	}

	t.status = to
	if gatewayTxID != "" {
		t.gatewayTransactionID = gatewayTxID
	}
	if to == StatusPaid {
		paid := at.UTC()
		t.paidAt = &paid
	}
	t.updatedAt = time.Now().UTC()
	return true, nil
}

// Fail marks a pending transaction failed, for saga compensation.
func (t *Transaction) Fail(reason string) error {
	if t.status != StatusPending {
		return domain.NewInvalidStateError(string(t.status), string(StatusFailed))
	}
	t.status = StatusFailed
	t.failureReason = reason
	t.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (t *Transaction) IncrementVersion() {
	t.version++
	t.updatedAt = time.Now().UTC()
}

// --- Reconstitution (used by repository to rebuild from persistence) ---

// Reconstitute rebuilds a Transaction from persisted data.
func Reconstitute(
	id uuid.UUID,
	orderID string,
	membershipID, userID uuid.UUID,
	amountCents int64,
	currency string,
	status Status,
	gatewayToken, gatewayRedirectURL, gatewayTransactionID, failureReason string,
	paidAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:                   id,
		orderID:              orderID,
		membershipID:         membershipID,
		userID:               userID,
		amountCents:          amountCents,
		currency:             currency,
		status:               status,
		gatewayToken:         gatewayToken,
		gatewayRedirectURL:   gatewayRedirectURL,
		gatewayTransactionID: gatewayTransactionID,
		failureReason:        failureReason,
		paidAt:               paidAt,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}
}
