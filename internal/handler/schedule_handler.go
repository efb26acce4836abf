package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

// defaultSessionWindow is how far ahead GET /sessions looks when no range is given.
const defaultSessionWindow = 7

// ScheduleHandler handles HTTP requests for class sessions.
type ScheduleHandler struct {
	service scheduleUseCases
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service scheduleUseCases) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

type listSessionsQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// RegisterRoutes registers schedule routes.
func (h *ScheduleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	sessions := r.Group("/sessions")
	sessions.Use(authMW)
	{
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
	}

	admin := r.Group("/admin/sessions")
	admin.Use(authMW, middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateSession)
		admin.PATCH("/:id/status", h.UpdateSessionStatus)
	}
}

// ListSessions handles GET /api/v1/sessions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ScheduleHandler) ListSessions(c *gin.Context) {
	var q listSessionsQuery
	if !bindQuery(c, &q) {
		return
	}

	from := schedule.DateOnly(time.Now())
	if q.From != "" {
		from, _ = time.Parse(application.DateLayout, q.From)
	}
	to := from.AddDate(0, 0, defaultSessionWindow)
	if q.To != "" {
		to, _ = time.Parse(application.DateLayout, q.To)
	}

	list, err := h.service.ListSessions(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *ScheduleHandler) GetSession(c *gin.Context) {
	id, ok := uuidParam(c, "id", "session")
	if !ok {
		return
	}
	dto, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// CreateSession handles POST /api/v1/admin/sessions
func (h *ScheduleHandler) CreateSession(c *gin.Context) {
	var req application.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	dto, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// UpdateSessionStatus handles PATCH /api/v1/admin/sessions/:id/status
func (h *ScheduleHandler) UpdateSessionStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id", "session")
	if !ok {
		return
	}
	var req application.UpdateSessionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	dto, err := h.service.UpdateSessionStatus(c.Request.Context(), id, schedule.SessionStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
