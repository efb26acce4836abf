package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

type routes interface {
	RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager)
}

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(handlers ...routes) *testServer {
	jwt := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	r := gin.New()
	api := r.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api, jwt)
	}
	return &testServer{router: r, jwt: jwt}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(userID, "member@manta.test", role)
	require.NoError(t, err)
	return tok
}

// do sends method+path with an optional JSON body and bearer token.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func fieldErrors(t *testing.T, env envelope) map[string]any {
	t.Helper()
	fields, ok := env.Details["fields"].(map[string]any)
	require.True(t, ok, "details.fields missing: %v", env.Details)
	return fields
}

// --- stubs ---

type stubBookings struct {
	create      func(application.CreateBookingRequest) (*application.BookingDTO, error)
	cancel      func(application.CancelBookingRequest) (*application.CancelBookingResult, error)
	eligibility func(sessionID, userID uuid.UUID) (*application.EligibilityDTO, error)
	mine        func(userID uuid.UUID) ([]application.BookingDTO, error)
}

func (s *stubBookings) CreateBooking(_ context.Context, req application.CreateBookingRequest) (*application.BookingDTO, error) {
	return s.create(req)
}

func (s *stubBookings) CancelBooking(_ context.Context, req application.CancelBookingRequest) (*application.CancelBookingResult, error) {
	return s.cancel(req)
}

func (s *stubBookings) CheckEligibility(_ context.Context, sessionID, userID uuid.UUID) (*application.EligibilityDTO, error) {
	return s.eligibility(sessionID, userID)
}

func (s *stubBookings) ListSessionBookings(context.Context, uuid.UUID) ([]application.BookingDTO, error) {
	return []application.BookingDTO{}, nil
}

func (s *stubBookings) ListMyBookings(_ context.Context, userID uuid.UUID) ([]application.BookingDTO, error) {
	return s.mine(userID)
}

type stubFreezes struct {
	request  func(userID, membershipID uuid.UUID, reason string) (*application.FreezeRequestDTO, error)
	approve  func(requestID, adminID uuid.UUID, d freeze.Duration) (*application.ApproveFreezeResult, error)
	reject   func(requestID, adminID uuid.UUID, reason string) (*application.FreezeRequestDTO, error)
	complete func(now time.Time) (*application.CompleteDueResult, error)
	list     func(status *freeze.Status) ([]application.FreezeRequestDTO, error)
}

func (s *stubFreezes) RequestFreeze(_ context.Context, userID, membershipID uuid.UUID, reason string) (*application.FreezeRequestDTO, error) {
	return s.request(userID, membershipID, reason)
}

func (s *stubFreezes) ApproveFreeze(_ context.Context, requestID, adminID uuid.UUID, d freeze.Duration) (*application.ApproveFreezeResult, error) {
	return s.approve(requestID, adminID, d)
}

func (s *stubFreezes) RejectFreeze(_ context.Context, requestID, adminID uuid.UUID, reason string) (*application.FreezeRequestDTO, error) {
	return s.reject(requestID, adminID, reason)
}

func (s *stubFreezes) CompleteDueFreezes(_ context.Context, now time.Time) (*application.CompleteDueResult, error) {
	return s.complete(now)
}

func (s *stubFreezes) ListFreezeRequests(_ context.Context, status *freeze.Status) ([]application.FreezeRequestDTO, error) {
	return s.list(status)
}

type stubCatalog struct {
	createItem  func(application.CreateItemRequest) (*application.ItemDTO, error)
	deletePool  func(id uuid.UUID) error
	getProduct  func(id uuid.UUID) (*application.ProductDTO, error)
	listProduct func(activeOnly bool) ([]application.ProductDTO, error)
}

func (s *stubCatalog) CreateItem(_ context.Context, req application.CreateItemRequest) (*application.ItemDTO, error) {
	return s.createItem(req)
}

func (s *stubCatalog) ListItems(context.Context) ([]application.ItemDTO, error) {
	return []application.ItemDTO{}, nil
}

func (s *stubCatalog) CreateQuotaPool(_ context.Context, req application.CreateQuotaPoolRequest) (*application.QuotaPoolDTO, error) {
	return &application.QuotaPoolDTO{ID: uuid.New(), Name: req.Name, TotalQuota: req.TotalQuota}, nil
}

func (s *stubCatalog) ListQuotaPools(context.Context) ([]application.QuotaPoolDTO, error) {
	return []application.QuotaPoolDTO{}, nil
}

func (s *stubCatalog) DeleteQuotaPool(_ context.Context, id uuid.UUID) error {
	return s.deletePool(id)
}

func (s *stubCatalog) CreateProduct(_ context.Context, req application.CreateProductRequest) (*application.ProductDTO, error) {
	return &application.ProductDTO{ID: uuid.New(), Name: req.Name}, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*application.ProductDTO, error) {
	return s.getProduct(id)
}

func (s *stubCatalog) ListProducts(_ context.Context, activeOnly bool) ([]application.ProductDTO, error) {
	return s.listProduct(activeOnly)
}

type stubSchedule struct {
	list         func(from, to time.Time) ([]application.SessionDTO, error)
	create       func(application.CreateSessionRequest) (*application.SessionDTO, error)
	updateStatus func(id uuid.UUID, status schedule.SessionStatus) (*application.SessionDTO, error)
}

func (s *stubSchedule) CreateSession(_ context.Context, req application.CreateSessionRequest) (*application.SessionDTO, error) {
	return s.create(req)
}

func (s *stubSchedule) GetSession(_ context.Context, id uuid.UUID) (*application.SessionDTO, error) {
	return &application.SessionDTO{ID: id}, nil
}

func (s *stubSchedule) ListSessions(_ context.Context, from, to time.Time) ([]application.SessionDTO, error) {
	return s.list(from, to)
}

func (s *stubSchedule) UpdateSessionStatus(_ context.Context, id uuid.UUID, status schedule.SessionStatus) (*application.SessionDTO, error) {
	return s.updateStatus(id, status)
}

type stubMemberships struct {
	purchase func(userID uuid.UUID, req application.PurchaseMembershipRequest) (*application.PurchaseDTO, error)
	notify   func(n payment.Notification) (*application.NotificationResult, error)
	mine     func(userID uuid.UUID) ([]application.MembershipDTO, error)
}

func (s *stubMemberships) PurchaseMembership(_ context.Context, userID uuid.UUID, req application.PurchaseMembershipRequest) (*application.PurchaseDTO, error) {
	return s.purchase(userID, req)
}

func (s *stubMemberships) HandlePaymentNotification(_ context.Context, n payment.Notification) (*application.NotificationResult, error) {
	return s.notify(n)
}

func (s *stubMemberships) ListMyMemberships(_ context.Context, userID uuid.UUID) ([]application.MembershipDTO, error) {
	return s.mine(userID)
}
