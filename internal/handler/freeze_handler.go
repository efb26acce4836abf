package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

// FreezeHandler handles HTTP requests for membership freezes.
type FreezeHandler struct {
	service freezeUseCases
}

// NewFreezeHandler creates a new FreezeHandler.
func NewFreezeHandler(service freezeUseCases) *FreezeHandler {
	return &FreezeHandler{service: service}
}

type listFreezeQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING_APPROVAL APPROVED REJECTED COMPLETED"`
}

// RegisterRoutes registers freeze routes.
func (h *FreezeHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	memberships := r.Group("/memberships")
	memberships.Use(authMW)
	{
		memberships.POST("/:id/freeze-requests", h.RequestFreeze)
	}

	admin := r.Group("/admin/freeze-requests")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.ListFreezeRequests)
		admin.POST("/complete-due", h.CompleteDueFreezes)
		admin.POST("/:id/approve", h.ApproveFreeze)
		admin.POST("/:id/reject", h.RejectFreeze)
	}
}

// RequestFreeze handles POST /api/v1/memberships/:id/freeze-requests
func (h *FreezeHandler) RequestFreeze(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	membershipID, ok := uuidParam(c, "id", "membership")
	if !ok {
		return
	}
	var req application.RequestFreezeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.RequestFreeze(c.Request.Context(), userID, membershipID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListFreezeRequests handles GET /api/v1/admin/freeze-requests?status=
func (h *FreezeHandler) ListFreezeRequests(c *gin.Context) {
	var q listFreezeQuery
	if !bindQuery(c, &q) {
		return
	}
	var status *freeze.Status
	if q.Status != "" {
		s := freeze.Status(q.Status)
		status = &s
	}

	list, err := h.service.ListFreezeRequests(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ApproveFreeze handles POST /api/v1/admin/freeze-requests/:id/approve
// Body: exactly one of presetDays, customDays or freezeEndDate.
func (h *FreezeHandler) ApproveFreeze(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := uuidParam(c, "id", "freeze request")
	if !ok {
		return
	}
	var body approveFreezeBody
	if !bindJSON(c, &body) {
		return
	}
	d, err := body.duration()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.ApproveFreeze(c.Request.Context(), requestID, adminID, d)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RejectFreeze handles POST /api/v1/admin/freeze-requests/:id/reject
func (h *FreezeHandler) RejectFreeze(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := uuidParam(c, "id", "freeze request")
	if !ok {
		return
	}
	var req application.RejectFreezeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.RejectFreeze(c.Request.Context(), requestID, adminID, req.RejectionReason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// CompleteDueFreezes handles POST /api/v1/admin/freeze-requests/complete-due
func (h *FreezeHandler) CompleteDueFreezes(c *gin.Context) {
	result, err := h.service.CompleteDueFreezes(c.Request.Context(), time.Now().UTC())
	if err != nil && result == nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
