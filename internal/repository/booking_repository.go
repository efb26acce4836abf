package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/booking"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
)

// BookingModel is the GORM persistence model for the bookings table.
// The partial unique index allows one live booking per user and session.
type BookingModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClassSessionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_session_user_active,where:status <> 'CANCELLED'"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_session_user_active,where:status <> 'CANCELLED'"`
	MembershipID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Status         string    `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// BookingRepositoryImpl is the GORM-based implementation of BookingRepository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var m BookingModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Booking", id.String())
	}
	return bookingToDomain(&m), nil
}

// FindActive returns the user's non-cancelled booking for a session.
func (r *BookingRepositoryImpl) FindActive(ctx context.Context, sessionID, userID uuid.UUID) (*booking.Booking, error) {
	var m BookingModel
	err := database.Conn(ctx, r.db).
		Where("class_session_id = ? AND user_id = ? AND status <> ?", sessionID, userID, string(booking.StatusCancelled)).
		First(&m).Error
	if err != nil {
		return nil, translate(err, "Booking", sessionID.String())
	}
	return bookingToDomain(&m), nil
}

// CountConfirmed counts CONFIRMED bookings of a session.
func (r *BookingRepositoryImpl) CountConfirmed(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("class_session_id = ? AND status = ?", sessionID, string(booking.StatusConfirmed)).
		Count(&count).Error
	return int(count), err
}

// FindWaitlisted lists WAITLISTED bookings of a session, oldest first.
func (r *BookingRepositoryImpl) FindWaitlisted(ctx context.Context, sessionID uuid.UUID) ([]*booking.Booking, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("class_session_id = ? AND status = ?", sessionID, string(booking.StatusWaitlisted)).
		Order("created_at ASC").Order("id ASC"))
}

// ListBySession lists every booking of a session in creation order.
func (r *BookingRepositoryImpl) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*booking.Booking, error) {
	return r.find(database.Conn(ctx, r.db).Where("class_session_id = ?", sessionID).Order("created_at ASC"))
}

// ListByUser lists every booking a user made, newest first.
func (r *BookingRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*booking.Booking, error) {
	return r.find(database.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC"))
}

func (r *BookingRepositoryImpl) find(q *gorm.DB) ([]*booking.Booking, error) {
	var models []BookingModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*booking.Booking, len(models))
	for i := range models {
		out[i] = bookingToDomain(&models[i])
	}
	return out, nil
}

// Save persists a new booking. A concurrent duplicate hits the partial unique index and becomes a conflict.
func (r *BookingRepositoryImpl) Save(ctx context.Context, b *booking.Booking) error {
	return translate(database.Conn(ctx, r.db).Create(bookingToModel(b)).Error, "Booking", b.ID().String())
}

// Update persists a status change.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *booking.Booking) error {
	result := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ?", b.ID()).
		Updates(map[string]any{"status": string(b.Status()), "updated_at": b.UpdatedAt()})
	if result.Error != nil {
		return translate(result.Error, "Booking", b.ID().String())
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Booking", b.ID().String())
	}
	return nil
}

// Delete removes a booking row.
func (r *BookingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Booking", id.String())
	}
	return nil
}

func bookingToDomain(m *BookingModel) *booking.Booking {
	return booking.Reconstitute(
		m.ID,
		m.ClassSessionID,
		m.UserID,
		m.MembershipID,
		booking.Status(m.Status),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func bookingToModel(b *booking.Booking) *BookingModel {
	return &BookingModel{
		ID:             b.ID(),
		ClassSessionID: b.ClassSessionID(),
		UserID:         b.UserID(),
		MembershipID:   b.MembershipID(),
		Status:         string(b.Status()),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}
