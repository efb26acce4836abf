package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/quota"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaUsageModel is the GORM persistence model for the membership_quota_usages table.
// ScopeKey ("item:<id>" or "pool:<id>") makes (membership, scope) unique so increments can upsert.
type QuotaUsageModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MembershipID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_quota_usage_membership_scope"`
	ScopeKey      string     `gorm:"type:varchar(80);not null;uniqueIndex:idx_quota_usage_membership_scope"`
	ProductItemID *uuid.UUID `gorm:"type:uuid"`
	QuotaPoolID   *uuid.UUID `gorm:"type:uuid;index"`
	UsedCount     int        `gorm:"not null;default:0;check:used_count >= 0"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (QuotaUsageModel) TableName() string { return "membership_quota_usages" }

// QuotaUsageRepositoryImpl is the GORM-based implementation of quota.UsageRepository.
type QuotaUsageRepositoryImpl struct {
	db *gorm.DB
}

// NewQuotaUsageRepository creates a new GORM-based quota usage repository.
func NewQuotaUsageRepository(db *gorm.DB) *QuotaUsageRepositoryImpl {
	return &QuotaUsageRepositoryImpl{db: db}
}

// Increment inserts the counter at 1 or bumps the existing one in a single statement.
func (r *QuotaUsageRepositoryImpl) Increment(ctx context.Context, membershipID uuid.UUID, scope quota.Scope) error {
	now := time.Now().UTC()
	m := QuotaUsageModel{
		ID:           uuid.New(),
		MembershipID: membershipID,
		ScopeKey:     scope.Key(),
		UsedCount:    1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	scopeID := scope.ID
	switch scope.Kind {
	case quota.ScopeItem:
		m.ProductItemID = &scopeID
	case quota.ScopePool:
		m.QuotaPoolID = &scopeID
	}

	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "membership_id"}, {Name: "scope_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"used_count": gorm.Expr("membership_quota_usages.used_count + 1"),
			"updated_at": now,
		}),
	}).Create(&m).Error
}

// Decrement subtracts one when the counter is positive. A missing or zero counter is left alone.
func (r *QuotaUsageRepositoryImpl) Decrement(ctx context.Context, membershipID uuid.UUID, scope quota.Scope) error {
	return database.Conn(ctx, r.db).
		Model(&QuotaUsageModel{}).
		Where("membership_id = ? AND scope_key = ? AND used_count > 0", membershipID, scope.Key()).
		UpdateColumns(map[string]any{
			"used_count": gorm.Expr("used_count - 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

// FindByMembership returns every counter of a membership.
func (r *QuotaUsageRepositoryImpl) FindByMembership(ctx context.Context, membershipID uuid.UUID) ([]quota.Usage, error) {
	var models []QuotaUsageModel
	if err := database.Conn(ctx, r.db).Where("membership_id = ?", membershipID).Find(&models).Error; err != nil {
		return nil, err
	}
	usages := make([]quota.Usage, len(models))
	for i := range models {
		usages[i] = usageToDomain(&models[i])
	}
	return usages, nil
}

// FindByMemberships returns counters for several memberships keyed by membership ID.
func (r *QuotaUsageRepositoryImpl) FindByMemberships(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID][]quota.Usage, error) {
	out := make(map[uuid.UUID][]quota.Usage, len(membershipIDs))
	if len(membershipIDs) == 0 {
		return out, nil
	}
	var models []QuotaUsageModel
	if err := database.Conn(ctx, r.db).Where("membership_id IN ?", membershipIDs).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		u := usageToDomain(&models[i])
		out[u.MembershipID] = append(out[u.MembershipID], u)
	}
	return out, nil
}

func usageToDomain(m *QuotaUsageModel) quota.Usage {
	var scope quota.Scope
	switch {
	case m.QuotaPoolID != nil:
		scope = quota.PoolScope(*m.QuotaPoolID)
	case m.ProductItemID != nil:
		scope = quota.ItemScope(*m.ProductItemID)
	}
	return quota.Usage{
		ID:           m.ID,
		MembershipID: m.MembershipID,
		Scope:        scope,
		UsedCount:    m.UsedCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
