package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/domain"
	"go.uber.org/zap"
)

// DateLayout is the wire format of session dates.
const DateLayout = "2006-01-02"

// CreateSessionRequest is the DTO for scheduling a class session.
type CreateSessionRequest struct {
	ItemID    uuid.UUID `json:"itemId" binding:"required"`
	Date      string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string    `json:"startTime" binding:"required,datetime=15:04"`
	EndTime   string    `json:"endTime" binding:"required,datetime=15:04"`
}

// UpdateSessionStatusRequest is the DTO for closing a session.
type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CANCELLED COMPLETED"`
}

// SessionDTO is the API response DTO for class sessions.
type SessionDTO struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScheduleService manages class sessions.
type ScheduleService struct {
	sessions schedule.SessionRepository
	items    catalog.ItemRepository
	logger   *zap.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(sessions schedule.SessionRepository, items catalog.ItemRepository, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{sessions: sessions, items: items, logger: logger}
}

// CreateSession schedules a class type. A second session of the same item, date and start time is a conflict.
func (s *ScheduleService) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionDTO, error) {
	date, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return nil, domain.NewValidationError("date", "date must be YYYY-MM-DD")
	}
	if _, err := s.items.FindByID(ctx, req.ItemID); err != nil {
		return nil, err
	}

	session, err := schedule.NewClassSession(req.ItemID, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("class session scheduled",
		zap.String("session_id", session.ID().String()),
		zap.String("item_id", req.ItemID.String()),
		zap.String("date", req.Date),
		zap.String("start_time", req.StartTime),
	)
	dto := toSessionDTO(session)
	return &dto, nil
}

// GetSession retrieves a session.
func (s *ScheduleService) GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toSessionDTO(session)
	return &dto, nil
}

// ListSessions lists sessions dated within [from, to].
func (s *ScheduleService) ListSessions(ctx context.Context, from, to time.Time) ([]SessionDTO, error) {
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "to must not be before from")
	}
	list, err := s.sessions.List(ctx, schedule.DateOnly(from), schedule.DateOnly(to))
	if err != nil {
		return nil, err
	}
	dtos := make([]SessionDTO, len(list))
	for i, session := range list {
		dtos[i] = toSessionDTO(session)
	}
	return dtos, nil
}

// UpdateSessionStatus cancels or completes a scheduled session.
func (s *ScheduleService) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status schedule.SessionStatus) (*SessionDTO, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("class session status changed",
		zap.String("session_id", id.String()),
		zap.String("status", string(status)),
	)
	dto := toSessionDTO(session)
	return &dto, nil
}

func toSessionDTO(s *schedule.ClassSession) SessionDTO {
	return SessionDTO{
		ID:        s.ID(),
		ItemID:    s.ItemID(),
		Date:      s.Date().Format(DateLayout),
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		Status:    string(s.Status()),
		CreatedAt: s.CreatedAt(),
	}
}
