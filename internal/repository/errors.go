package repository

import (
	"errors"

	"github.com/martinsuhendra/manta/pkg/domain"
	"gorm.io/gorm"
)

// translate maps GORM errors to domain errors. It expects a DB opened with TranslateError.
func translate(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewNotFoundError(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewConflictError(entity + " already exists")
	default:
		return err
	}
}

// AllModels lists every persisted model, for development AutoMigrate.
func AllModels() []any {
	return []any{
		&ItemModel{},
		&QuotaPoolModel{},
		&ProductModel{},
		&ProductItemModel{},
		&MembershipModel{},
		&QuotaUsageModel{},
		&ClassSessionModel{},
		&BookingModel{},
		&FreezeRequestModel{},
		&PaymentTransactionModel{},
	}
}
