package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	paymentDomain "github.com/martinsuhendra/manta/internal/domain/payment"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/domain"
	"gorm.io/gorm"
)

// PaymentTransactionModel is the GORM persistence model for the payment_transactions table.
type PaymentTransactionModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID              string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	MembershipID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null"`
	AmountCents          int64      `gorm:"not null"`
	Currency             string     `gorm:"type:varchar(3);not null;default:'IDR'"`
	Status               string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	GatewayToken         string     `gorm:"type:varchar(255)"`
	GatewayRedirectURL   string     `gorm:"type:text"`
	GatewayTransactionID string     `gorm:"type:varchar(255)"`
	FailureReason        string     `gorm:"type:text"`
	PaidAt               *time.Time `gorm:"type:timestamptz"`
	Version              int64      `gorm:"not null;default:1"`
	CreatedAt            time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt            time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// PaymentRepositoryImpl is the GORM-based implementation of TransactionRepository.
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new GORM-based payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepositoryImpl {
	return &PaymentRepositoryImpl{db: db}
}

// FindByID retrieves a transaction by its unique ID.
func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Transaction, error) {
	var model PaymentTransactionModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translate(err, "Payment", id.String())
	}
	return paymentToDomain(&model), nil
}

// FindByOrderID retrieves a transaction by its gateway order ID.
func (r *PaymentRepositoryImpl) FindByOrderID(ctx context.Context, orderID string) (*paymentDomain.Transaction, error) {
	var model PaymentTransactionModel
	if err := database.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		return nil, translate(err, "Payment", orderID)
	}
	return paymentToDomain(&model), nil
}

// Save persists a new transaction.
func (r *PaymentRepositoryImpl) Save(ctx context.Context, t *paymentDomain.Transaction) error {
	return translate(database.Conn(ctx, r.db).Create(paymentToModel(t)).Error, "Payment", t.OrderID())
}

// Update persists changes to an existing transaction with optimistic locking.
func (r *PaymentRepositoryImpl) Update(ctx context.Context, t *paymentDomain.Transaction) error {
	model := paymentToModel(t)
	previousVersion := t.Version() - 1

	result := database.Conn(ctx, r.db).
		Model(&PaymentTransactionModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}

	return nil
}

// paymentToDomain maps a PaymentTransactionModel to the domain aggregate.
func paymentToDomain(model *PaymentTransactionModel) *paymentDomain.Transaction {
	return paymentDomain.Reconstitute(
		model.ID,
		model.OrderID,
		model.MembershipID,
		model.UserID,
		model.AmountCents,
		model.Currency,
		paymentDomain.Status(model.Status),
		model.GatewayToken,
		model.GatewayRedirectURL,
		model.GatewayTransactionID,
		model.FailureReason,
		model.PaidAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

// paymentToModel maps the domain aggregate to a PaymentTransactionModel for persistence.
func paymentToModel(t *paymentDomain.Transaction) *PaymentTransactionModel {
	return &PaymentTransactionModel{
		ID:                   t.ID(),
		OrderID:              t.OrderID(),
		MembershipID:         t.MembershipID(),
		UserID:               t.UserID(),
		AmountCents:          t.AmountCents(),
		Currency:             t.Currency(),
		Status:               string(t.Status()),
		GatewayToken:         t.GatewayToken(),
		GatewayRedirectURL:   t.GatewayRedirectURL(),
		GatewayTransactionID: t.GatewayTransactionID(),
		FailureReason:        t.FailureReason(),
		PaidAt:               t.PaidAt(),
		Version:              t.Version(),
		CreatedAt:            t.CreatedAt(),
		UpdatedAt:            t.UpdatedAt(),
	}
}
