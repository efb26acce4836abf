package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable is the message returned while the breaker is open.
const ErrGatewayUnavailable = "payment gateway is temporarily unavailable"

// BreakerSettings configures BreakerGateway.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	Interval         time.Duration
}

// BreakerGateway guards a PaymentGateway with a circuit breaker so a failing
// provider is not called on every purchase.
type BreakerGateway struct {
	next    PaymentGateway
	breaker *gobreaker.CircuitBreaker[GatewayToken]
	logger  *zap.Logger
}

// NewBreakerGateway wraps next.
func NewBreakerGateway(next PaymentGateway, cfg BreakerSettings, logger *zap.Logger, onStateChange func(to gobreaker.State)) *BreakerGateway {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if onStateChange != nil {
				onStateChange(to)
			}
		},
	}
	return &BreakerGateway{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[GatewayToken](settings),
		logger:  logger,
	}
}

// CreateTransaction calls the wrapped gateway unless the breaker is open.
func (g *BreakerGateway) CreateTransaction(ctx context.Context, order GatewayOrder) (GatewayToken, error) {
	token, err := g.breaker.Execute(func() (GatewayToken, error) {
		return g.next.CreateTransaction(ctx, order)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return GatewayToken{}, &domain.DomainError{Err: domain.ErrInvalidState, Message: ErrGatewayUnavailable}
	}
	return token, err
}

// CancelTransaction is compensation and bypasses the breaker.
func (g *BreakerGateway) CancelTransaction(ctx context.Context, orderID string) error {
	return g.next.CancelTransaction(ctx, orderID)
}

// State reports the breaker state.
func (g *BreakerGateway) State() gobreaker.State {
	return g.breaker.State()
}
