package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Notification is the gateway's asynchronous payment status callback.
type Notification struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
}

// Signature computes hex(SHA512(orderId + statusCode + grossAmount + serverKey)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the notification against the merchant server key in constant time.
func (n Notification) VerifySignature(serverKey string) bool {
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	given := strings.ToLower(n.SignatureKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// MapGatewayStatus translates a gateway transaction/fraud status pair.
// ok is false for statuses with no mapping.
func MapGatewayStatus(transactionStatus, fraudStatus string) (status Status, ok bool) {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		if strings.EqualFold(fraudStatus, "challenge") {
			return StatusPending, true
		}
		return StatusPaid, true
	case "settlement":
		return StatusPaid, true
	case "pending":
		return StatusPending, true
	case "deny", "failure":
		return StatusFailed, true
	case "cancel":
		return StatusCancelled, true
	case "expire":
		return StatusExpired, true
	case "refund", "partial_refund":
		return StatusRefunded, true
	default:
		return "", false
	}
}
