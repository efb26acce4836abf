package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/membership"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipModel is the GORM persistence model for the memberships table.
type MembershipModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status    string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	JoinDate  *time.Time `gorm:"type:timestamptz"`
	ExpiredAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (MembershipModel) TableName() string { return "memberships" }

// MembershipRepositoryImpl is the GORM-based implementation of MembershipRepository.
type MembershipRepositoryImpl struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new GORM-based membership repository.
func NewMembershipRepository(db *gorm.DB) *MembershipRepositoryImpl {
	return &MembershipRepositoryImpl{db: db}
}

// FindByID retrieves a membership by its unique ID.
func (r *MembershipRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	return r.first(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a membership with SELECT ... FOR UPDATE.
func (r *MembershipRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	return r.first(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *MembershipRepositoryImpl) first(q *gorm.DB, id uuid.UUID) (*membership.Membership, error) {
	var m MembershipModel
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Membership", id.String())
	}
	return membershipToDomain(&m), nil
}

// FindByUser lists every membership a user holds, newest first.
func (r *MembershipRepositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID) ([]*membership.Membership, error) {
	return r.find(database.Conn(ctx, r.db).Where("user_id = ?", userID))
}

// FindBookableByUser lists ACTIVE memberships of a user expiring after now.
func (r *MembershipRepositoryImpl) FindBookableByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*membership.Membership, error) {
	return r.find(database.Conn(ctx, r.db).
		Where("user_id = ? AND status = ? AND expired_at > ?", userID, string(membership.StatusActive), now))
}

func (r *MembershipRepositoryImpl) find(q *gorm.DB) ([]*membership.Membership, error) {
	var models []MembershipModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*membership.Membership, len(models))
	for i := range models {
		out[i] = membershipToDomain(&models[i])
	}
	return out, nil
}

// Save persists a new membership.
func (r *MembershipRepositoryImpl) Save(ctx context.Context, m *membership.Membership) error {
	return translate(database.Conn(ctx, r.db).Create(membershipToModel(m)).Error, "Membership", m.ID().String())
}

// Update persists the mutable columns of a membership.
func (r *MembershipRepositoryImpl) Update(ctx context.Context, m *membership.Membership) error {
	result := database.Conn(ctx, r.db).
		Model(&MembershipModel{}).
		Where("id = ?", m.ID()).
		Select("status", "join_date", "expired_at", "updated_at").
		Updates(membershipToModel(m))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Membership", m.ID().String())
	}
	return nil
}

func membershipToDomain(m *MembershipModel) *membership.Membership {
	return membership.Reconstitute(
		m.ID,
		m.UserID,
		m.ProductID,
		membership.Status(m.Status),
		m.JoinDate,
		m.ExpiredAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func membershipToModel(m *membership.Membership) *MembershipModel {
	return &MembershipModel{
		ID:        m.ID(),
		UserID:    m.UserID(),
		ProductID: m.ProductID(),
		Status:    string(m.Status()),
		JoinDate:  m.JoinDate(),
		ExpiredAt: m.ExpiredAt(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
}
