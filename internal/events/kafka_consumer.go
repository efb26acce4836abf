package events

import (
	"context"
	"strings"

	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NotificationHandler applies a payment gateway notification.
type NotificationHandler interface {
	HandlePaymentNotification(ctx context.Context, n payment.Notification) (*application.NotificationResult, error)
}

// PaymentNotificationConsumer applies gateway notifications relayed over Kafka.
type PaymentNotificationConsumer struct {
	consumer *kafka.Consumer
	handler  NotificationHandler
	logger   *zap.Logger
}

// NewPaymentNotificationConsumer creates a new consumer for relayed payment notifications.
func NewPaymentNotificationConsumer(
	brokers []string,
	groupID string,
	handler NotificationHandler,
	logger *zap.Logger,
) *PaymentNotificationConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentNotifications, logger)
	return &PaymentNotificationConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming notifications. It blocks until the context is cancelled.
func (c *PaymentNotificationConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the appropriate handler.
func (c *PaymentNotificationConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment notification topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received payment notification event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, events.PaymentNotificationReceived):
		return c.handleNotification(ctx, cloudEvent)

	default:
		c.logger.Debug("ignoring unhandled payment notification event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentNotificationConsumer) handleNotification(ctx context.Context, ce kafka.CloudEvent) error {
	var n payment.Notification
	if err := ce.ParseData(&n); err != nil {
		c.logger.Error("failed to parse payment notification data", zap.Error(err))
		return err
	}

	result, err := c.handler.HandlePaymentNotification(ctx, n)
	if err != nil {
		return err
	}
	c.logger.Info("relayed payment notification applied",
		zap.String("order_id", result.OrderID),
		zap.String("status", result.Status),
		zap.Bool("applied", result.Applied),
	)
	return nil
}

// Close closes the underlying Kafka consumer.
func (c *PaymentNotificationConsumer) Close() error {
	return c.consumer.Close()
}
