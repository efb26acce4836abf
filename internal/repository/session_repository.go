package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClassSessionModel is the GORM persistence model for the class_sessions table.
type ClassSessionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_class_sessions_item_slot"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_class_sessions_item_slot"`
	StartTime string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_class_sessions_item_slot"`
	EndTime   string    `gorm:"type:varchar(5);not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'SCHEDULED'"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (ClassSessionModel) TableName() string { return "class_sessions" }

// SessionRepositoryImpl is the GORM-based implementation of schedule.SessionRepository.
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new GORM-based class session repository.
func NewSessionRepository(db *gorm.DB) *SessionRepositoryImpl {
	return &SessionRepositoryImpl{db: db}
}

// FindByID retrieves a session by ID.
func (r *SessionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*schedule.ClassSession, error) {
	return r.first(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a session with SELECT ... FOR UPDATE.
func (r *SessionRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*schedule.ClassSession, error) {
	return r.first(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *SessionRepositoryImpl) first(q *gorm.DB, id uuid.UUID) (*schedule.ClassSession, error) {
	var m ClassSessionModel
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Class session", id.String())
	}
	return sessionToDomain(&m), nil
}

// List returns sessions dated within [from, to], in chronological order.
func (r *SessionRepositoryImpl) List(ctx context.Context, from, to time.Time) ([]*schedule.ClassSession, error) {
	var models []ClassSessionModel
	err := database.Conn(ctx, r.db).
		Where("date >= ? AND date <= ?", schedule.DateOnly(from), schedule.DateOnly(to)).
		Order("date ASC").Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*schedule.ClassSession, len(models))
	for i := range models {
		out[i] = sessionToDomain(&models[i])
	}
	return out, nil
}

// Save persists a new session. A second session in the same slot is a conflict.
func (r *SessionRepositoryImpl) Save(ctx context.Context, s *schedule.ClassSession) error {
	return translate(database.Conn(ctx, r.db).Create(sessionToModel(s)).Error, "Class session", s.ID().String())
}

// Update persists a status change.
func (r *SessionRepositoryImpl) Update(ctx context.Context, s *schedule.ClassSession) error {
	result := database.Conn(ctx, r.db).
		Model(&ClassSessionModel{}).
		Where("id = ?", s.ID()).
		Updates(map[string]any{"status": string(s.Status()), "updated_at": s.UpdatedAt()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Class session", s.ID().String())
	}
	return nil
}

func sessionToDomain(m *ClassSessionModel) *schedule.ClassSession {
	return schedule.Reconstitute(
		m.ID,
		m.ItemID,
		schedule.DateOnly(m.Date),
		m.StartTime,
		m.EndTime,
		schedule.SessionStatus(m.Status),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func sessionToModel(s *schedule.ClassSession) *ClassSessionModel {
	return &ClassSessionModel{
		ID:        s.ID(),
		ItemID:    s.ItemID(),
		Date:      s.Date(),
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		Status:    string(s.Status()),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}
