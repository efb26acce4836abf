package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

// MembershipHandler handles membership purchase, listing and the payment webhook.
type MembershipHandler struct {
	service     membershipUseCases
	idempotency gin.HandlerFunc
}

// NewMembershipHandler creates a new MembershipHandler. idempotency may be nil.
func NewMembershipHandler(service membershipUseCases, idempotency gin.HandlerFunc) *MembershipHandler {
	return &MembershipHandler{service: service, idempotency: orPass(idempotency)}
}

// RegisterRoutes registers membership and payment notification routes.
func (h *MembershipHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	memberships := r.Group("/memberships")
	memberships.Use(middleware.AuthMiddleware(jwtManager))
	{
		memberships.POST("/purchase", h.idempotency, h.PurchaseMembership)
		memberships.GET("/me", h.ListMyMemberships)
	}

	// The gateway authenticates with the notification signature, not a JWT.
	r.POST("/payments/notifications", h.HandlePaymentNotification)
}

// PurchaseMembership handles POST /api/v1/memberships/purchase
func (h *MembershipHandler) PurchaseMembership(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req application.PurchaseMembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.PurchaseMembership(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListMyMemberships handles GET /api/v1/memberships/me
func (h *MembershipHandler) ListMyMemberships(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListMyMemberships(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// HandlePaymentNotification handles POST /api/v1/payments/notifications
func (h *MembershipHandler) HandlePaymentNotification(c *gin.Context) {
	var n payment.Notification
	if !bindJSON(c, &n) {
		return
	}
	result, err := h.service.HandlePaymentNotification(c.Request.Context(), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
