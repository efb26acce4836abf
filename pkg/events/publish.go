package events

import (
	"context"

	"github.com/martinsuhendra/manta/pkg/kafka"
	"go.uber.org/zap"
)

// Publisher publishes CloudEvents to a topic. *kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// NoopPublisher drops every event. It stands in when no brokers are configured.
type NoopPublisher struct{}

// PublishEvent implements Publisher.
func (NoopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// New wraps data in a CloudEvent from Source keyed by subject.
func New(eventType, subject string, data any) (kafka.CloudEvent, error) {
	ce, err := kafka.NewCloudEvent(Source, eventType, data)
	if err != nil {
		return kafka.CloudEvent{}, err
	}
	ce.Subject = subject
	return ce, nil
}

// PublishAfterCommit emits an event for a change that has already been committed.
// Failures are logged, not returned: the committed change stands either way.
func PublishAfterCommit(ctx context.Context, pub Publisher, logger *zap.Logger, eventType, subject string, data any) {
	ce, err := New(eventType, subject, data)
	if err != nil {
		logger.Error("failed to create cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := pub.PublishEvent(ctx, TopicMembershipEvents, ce); err != nil {
		logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
