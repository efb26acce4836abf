// Package metrics exposes Prometheus collectors for HTTP traffic and the booking domain.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manta_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manta_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	DomainEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manta_domain_events_total",
			Help: "Domain events emitted, by type and publish outcome",
		},
		[]string{"type", "outcome"},
	)

	WaitlistPromotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "manta_waitlist_promotions_total",
			Help: "Waitlisted bookings promoted into a freed seat",
		},
	)

	PaymentGatewayBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "manta_payment_gateway_breaker_state",
			Help: "Payment gateway circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
)

// RecordHTTPRequest observes one finished request.
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordEvent counts one emitted domain event.
func RecordEvent(eventType string, err error) {
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	DomainEventsTotal.WithLabelValues(eventType, outcome).Inc()
	if eventType == events.BookingWaitlistPromoted {
		WaitlistPromotionsTotal.Inc()
	}
}

// RecordBreakerState tracks the payment gateway breaker.
func RecordBreakerState(state gobreaker.State) {
	PaymentGatewayBreakerState.Set(float64(state))
}

// Middleware records every request under its route template, so IDs do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// CountingPublisher counts every event passing through to next.
type CountingPublisher struct {
	next events.Publisher
}

// NewCountingPublisher wraps next.
func NewCountingPublisher(next events.Publisher) *CountingPublisher {
	return &CountingPublisher{next: next}
}

// PublishEvent implements events.Publisher.
func (p *CountingPublisher) PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error {
	err := p.next.PublishEvent(ctx, topic, ce)
	RecordEvent(ce.Type, err)
	return err
}
