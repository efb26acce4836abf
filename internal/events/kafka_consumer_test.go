package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotificationHandler struct {
	received []payment.Notification
	err      error
}

func (f *fakeNotificationHandler) HandlePaymentNotification(_ context.Context, n payment.Notification) (*application.NotificationResult, error) {
	f.received = append(f.received, n)
	if f.err != nil {
		return nil, f.err
	}
	return &application.NotificationResult{OrderID: n.OrderID, Status: "PAID", Applied: true}, nil
}

func newTestConsumer(h NotificationHandler) *PaymentNotificationConsumer {
	return &PaymentNotificationConsumer{handler: h, logger: zap.NewNop()}
}

func message(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent(events.Source, eventType, data)
	require.NoError(t, err)
	value, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicPaymentNotifications, Value: value}
}

func TestHandleMessage_RoutesNotification(t *testing.T) {
	h := &fakeNotificationHandler{}
	c := newTestConsumer(h)

	n := payment.Notification{
		OrderID:           "MANTA-1",
		StatusCode:        "200",
		GrossAmount:       "150000.00",
		SignatureKey:      "abc",
		TransactionStatus: "settlement",
	}
	err := c.handleMessage(context.Background(), message(t, events.PaymentNotificationReceived, n))

	require.NoError(t, err)
	require.Len(t, h.received, 1)
	assert.Equal(t, n, h.received[0])
}

func TestHandleMessage_IgnoresOtherTypes(t *testing.T) {
	h := &fakeNotificationHandler{}
	c := newTestConsumer(h)

	err := c.handleMessage(context.Background(), message(t, events.BookingConfirmed, map[string]string{"x": "y"}))

	require.NoError(t, err)
	assert.Empty(t, h.received)
}

func TestHandleMessage_InvalidEnvelope(t *testing.T) {
	c := newTestConsumer(&fakeNotificationHandler{})

	err := c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")})

	assert.Error(t, err)
}

func TestHandleMessage_PropagatesHandlerError(t *testing.T) {
	h := &fakeNotificationHandler{err: errors.New("boom")}
	c := newTestConsumer(h)

	err := c.handleMessage(context.Background(), message(t, events.PaymentNotificationReceived, payment.Notification{OrderID: "MANTA-2"}))

	assert.EqualError(t, err, "boom")
}
