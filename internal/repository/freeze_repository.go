package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
)

// FreezeRequestModel is the GORM persistence model for the membership_freeze_requests table.
type FreezeRequestModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MembershipID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequestedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	Reason          string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING_APPROVAL';index"`
	FreezeStartDate *time.Time `gorm:"type:timestamptz"`
	FreezeEndDate   *time.Time `gorm:"type:timestamptz"`
	TotalFrozenDays *int
	ApprovedByID    *uuid.UUID `gorm:"type:uuid"`
	RejectionReason string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (FreezeRequestModel) TableName() string { return "membership_freeze_requests" }

// FreezeRequestRepositoryImpl is the GORM-based implementation of freeze.RequestRepository.
type FreezeRequestRepositoryImpl struct {
	db *gorm.DB
}

// NewFreezeRequestRepository creates a new GORM-based freeze request repository.
func NewFreezeRequestRepository(db *gorm.DB) *FreezeRequestRepositoryImpl {
	return &FreezeRequestRepositoryImpl{db: db}
}

// FindByID retrieves a freeze request by ID.
func (r *FreezeRequestRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*freeze.Request, error) {
	var m FreezeRequestModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Freeze request", id.String())
	}
	return freezeToDomain(&m), nil
}

// List returns requests newest first, optionally filtered by status.
func (r *FreezeRequestRepositoryImpl) List(ctx context.Context, status *freeze.Status) ([]*freeze.Request, error) {
	q := database.Conn(ctx, r.db).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	return r.find(q)
}

// FindDue returns approved freezes that ended at or before now.
func (r *FreezeRequestRepositoryImpl) FindDue(ctx context.Context, now time.Time) ([]*freeze.Request, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("status = ? AND freeze_end_date <= ?", string(freeze.StatusApproved), now).
		Order("freeze_end_date ASC"))
}

// HasPending reports whether the membership has a request awaiting approval.
func (r *FreezeRequestRepositoryImpl) HasPending(ctx context.Context, membershipID uuid.UUID) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&FreezeRequestModel{}).
		Where("membership_id = ? AND status = ?", membershipID, string(freeze.StatusPendingApproval)).
		Count(&count).Error
	return count > 0, err
}

func (r *FreezeRequestRepositoryImpl) find(q *gorm.DB) ([]*freeze.Request, error) {
	var models []FreezeRequestModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*freeze.Request, len(models))
	for i := range models {
		out[i] = freezeToDomain(&models[i])
	}
	return out, nil
}

// Save persists a new request.
func (r *FreezeRequestRepositoryImpl) Save(ctx context.Context, req *freeze.Request) error {
	return translate(database.Conn(ctx, r.db).Create(freezeToModel(req)).Error, "Freeze request", req.ID().String())
}

// Update persists a decision or completion.
func (r *FreezeRequestRepositoryImpl) Update(ctx context.Context, req *freeze.Request) error {
	result := database.Conn(ctx, r.db).
		Model(&FreezeRequestModel{}).
		Where("id = ?", req.ID()).
		Select("status", "freeze_start_date", "freeze_end_date", "total_frozen_days", "approved_by_id", "rejection_reason", "updated_at").
		Updates(freezeToModel(req))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Freeze request", req.ID().String())
	}
	return nil
}

func freezeToDomain(m *FreezeRequestModel) *freeze.Request {
	return freeze.Reconstitute(
		m.ID,
		m.MembershipID,
		m.RequestedBy,
		m.Reason,
		freeze.Status(m.Status),
		m.FreezeStartDate,
		m.FreezeEndDate,
		m.TotalFrozenDays,
		m.ApprovedByID,
		m.RejectionReason,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func freezeToModel(r *freeze.Request) *FreezeRequestModel {
	return &FreezeRequestModel{
		ID:              r.ID(),
		MembershipID:    r.MembershipID(),
		RequestedBy:     r.RequestedBy(),
		Reason:          r.Reason(),
		Status:          string(r.Status()),
		FreezeStartDate: r.FreezeStartDate(),
		FreezeEndDate:   r.FreezeEndDate(),
		TotalFrozenDays: r.TotalFrozenDays(),
		ApprovedByID:    r.ApprovedByID(),
		RejectionReason: r.RejectionReason(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
}
