package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

// BookingHandler handles HTTP requests for bookings and eligibility.
type BookingHandler struct {
	service     bookingUseCases
	idempotency gin.HandlerFunc
}

// NewBookingHandler creates a new BookingHandler. idempotency may be nil.
func NewBookingHandler(service bookingUseCases, idempotency gin.HandlerFunc) *BookingHandler {
	return &BookingHandler{service: service, idempotency: orPass(idempotency)}
}

type createBookingBody struct {
	SessionID    uuid.UUID `json:"sessionId" binding:"required"`
	MembershipID uuid.UUID `json:"membershipId" binding:"required"`
}

type adminCreateBookingBody struct {
	SessionID    uuid.UUID `json:"sessionId" binding:"required"`
	UserID       uuid.UUID `json:"userId" binding:"required"`
	MembershipID uuid.UUID `json:"membershipId" binding:"required"`
}

// RegisterRoutes registers member and admin booking routes.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.idempotency, h.CreateBooking)
		bookings.GET("/me", h.ListMyBookings)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}

	sessions := r.Group("/sessions")
	sessions.Use(authMW)
	{
		sessions.GET("/:id/eligibility", h.CheckEligibility)
	}

	admin := r.Group("/admin")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/bookings", h.idempotency, h.AdminCreateBooking)
		admin.GET("/sessions/:id/bookings", h.ListSessionBookings)
		admin.DELETE("/sessions/:id/bookings/:bookingId", h.AdminRemoveBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body createBookingBody
	if !bindJSON(c, &body) {
		return
	}

	dto, err := h.service.CreateBooking(c.Request.Context(), application.CreateBookingRequest{
		SessionID:    body.SessionID,
		UserID:       userID,
		MembershipID: body.MembershipID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// AdminCreateBooking handles POST /api/v1/admin/bookings
func (h *BookingHandler) AdminCreateBooking(c *gin.Context) {
	var body adminCreateBookingBody
	if !bindJSON(c, &body) {
		return
	}

	dto, err := h.service.CreateBooking(c.Request.Context(), application.CreateBookingRequest{
		SessionID:    body.SessionID,
		UserID:       body.UserID,
		MembershipID: body.MembershipID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), application.CancelBookingRequest{
		BookingID: bookingID,
		ActorID:   userID,
		Mode:      application.CancelByMember,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AdminRemoveBooking handles DELETE /api/v1/admin/sessions/:id/bookings/:bookingId
func (h *BookingHandler) AdminRemoveBooking(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id", "session")
	if !ok {
		return
	}
	bookingID, ok := uuidParam(c, "bookingId", "booking")
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), application.CancelBookingRequest{
		SessionID: sessionID,
		BookingID: bookingID,
		ActorID:   adminID,
		Mode:      application.RemoveByAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CheckEligibility handles GET /api/v1/sessions/:id/eligibility
func (h *BookingHandler) CheckEligibility(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id", "session")
	if !ok {
		return
	}

	dto, err := h.service.CheckEligibility(c.Request.Context(), sessionID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ListSessionBookings handles GET /api/v1/admin/sessions/:id/bookings
func (h *BookingHandler) ListSessionBookings(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id", "session")
	if !ok {
		return
	}

	list, err := h.service.ListSessionBookings(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListMyBookings handles GET /api/v1/bookings/me
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.service.ListMyBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
