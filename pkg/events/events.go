// Package events defines the topics, CloudEvent types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Source is the CloudEvent source of everything this service publishes.
const Source = "manta"

// Topics.
const (
	TopicMembershipEvents     = "membership.events"
	TopicPaymentNotifications = "payment.notifications"
)

// Event types published on TopicMembershipEvents.
const (
	BookingConfirmed            = "booking.confirmed"
	BookingWaitlisted           = "booking.waitlisted"
	BookingCancelled            = "booking.cancelled"
	BookingWaitlistPromoted     = "booking.waitlist_promoted"
	FreezeApproved              = "freeze.approved"
	FreezeRejected              = "freeze.rejected"
	FreezeCompleted             = "freeze.completed"
	MembershipActivated         = "membership.activated"
	MembershipPurchaseInitiated = "membership.purchase_initiated"
	MembershipPurchaseFailed    = "membership.purchase_failed"
)

// PaymentNotificationReceived is the type of gateway webhook relays on TopicPaymentNotifications.
const PaymentNotificationReceived = "payment.notification_received"

// BookingEvent is published for every booking state change.
type BookingEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	ClassSessionID uuid.UUID `json:"class_session_id"`
	UserID         uuid.UUID `json:"user_id"`
	MembershipID   uuid.UUID `json:"membership_id"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// FreezeEvent is published when a freeze request is decided or completed.
type FreezeEvent struct {
	FreezeRequestID uuid.UUID  `json:"freeze_request_id"`
	MembershipID    uuid.UUID  `json:"membership_id"`
	Status          string     `json:"status"`
	FreezeEndDate   *time.Time `json:"freeze_end_date,omitempty"`
	TotalFrozenDays *int       `json:"total_frozen_days,omitempty"`
	NewExpiredAt    *time.Time `json:"new_expired_at,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// MembershipEvent is published on purchase and activation.
type MembershipEvent struct {
	MembershipID uuid.UUID  `json:"membership_id"`
	UserID       uuid.UUID  `json:"user_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	OrderID      string     `json:"order_id,omitempty"`
	AmountCents  int64      `json:"amount_cents,omitempty"`
	ExpiredAt    *time.Time `json:"expired_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
