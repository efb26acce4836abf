package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	calls     int
	err       error
	cancelled []string
}

func (s *stubGateway) CreateTransaction(context.Context, GatewayOrder) (GatewayToken, error) {
	s.calls++
	if s.err != nil {
		return GatewayToken{}, s.err
	}
	return GatewayToken{Token: "tok"}, nil
}

func (s *stubGateway) CancelTransaction(_ context.Context, orderID string) error {
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

func order() GatewayOrder {
	return GatewayOrder{OrderID: "MBR-20260301-ABCDEF12", AmountCents: 15000000, Currency: "IDR", CustomerID: uuid.New(), ItemName: "Monthly"}
}

func TestMockPaymentGateway_IssuesToken(t *testing.T) {
	gw := NewMockPaymentGateway("https://app.sandbox.example/", zap.NewNop())

	token, err := gw.CreateTransaction(context.Background(), order())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token.Token, "snap_mock_"))
	assert.Equal(t, "https://app.sandbox.example/snap/v2/vtweb/"+token.Token, token.RedirectURL)
	assert.NoError(t, gw.CancelTransaction(context.Background(), "MBR-1"))
}

func TestBreakerGateway_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGateway{err: errors.New("upstream 502")}
	var transitions []gobreaker.State
	gw := NewBreakerGateway(stub, BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute}, zap.NewNop(),
		func(to gobreaker.State) { transitions = append(transitions, to) })

	for i := 0; i < 2; i++ {
		_, err := gw.CreateTransaction(context.Background(), order())
		assert.EqualError(t, err, "upstream 502")
	}
	assert.Equal(t, gobreaker.StateOpen, gw.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	_, err := gw.CreateTransaction(context.Background(), order())

	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, ErrGatewayUnavailable, err.Error())
	assert.Equal(t, 2, stub.calls)
}

func TestBreakerGateway_PassesThroughWhenHealthy(t *testing.T) {
	stub := &stubGateway{}
	gw := NewBreakerGateway(stub, BreakerSettings{}, zap.NewNop(), nil)

	token, err := gw.CreateTransaction(context.Background(), order())

	require.NoError(t, err)
	assert.Equal(t, "tok", token.Token)
	assert.Equal(t, gobreaker.StateClosed, gw.State())
}

func TestBreakerGateway_CancelBypassesOpenBreaker(t *testing.T) {
	stub := &stubGateway{err: errors.New("down")}
	gw := NewBreakerGateway(stub, BreakerSettings{FailureThreshold: 1, OpenTimeout: time.Minute}, zap.NewNop(), nil)
	_, _ = gw.CreateTransaction(context.Background(), order())
	require.Equal(t, gobreaker.StateOpen, gw.State())

	require.NoError(t, gw.CancelTransaction(context.Background(), "MBR-1"))
	assert.Equal(t, []string{"MBR-1"}, stub.cancelled)
}
