package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// QuotaType is the persisted discriminator of an Entitlement.
type QuotaType string

const (
	QuotaFree       QuotaType = "FREE"
	QuotaIndividual QuotaType = "INDIVIDUAL"
	QuotaShared     QuotaType = "SHARED"
)

// Entitlement is the closed set of quota rules a product item can carry:
// Free, Individual and Shared. The unexported method keeps the set closed.
type Entitlement interface {
	QuotaType() QuotaType
	entitlement()
}

// Free allows unlimited bookings.
type Free struct{}

// Individual allows Quota bookings of this class type alone.
type Individual struct {
	Quota int
}

// Shared draws from a pool consumed by every product item referencing it.
type Shared struct {
	PoolID     uuid.UUID
	TotalQuota int
}

func (Free) QuotaType() QuotaType       { return QuotaFree }
func (Individual) QuotaType() QuotaType { return QuotaIndividual }
func (Shared) QuotaType() QuotaType     { return QuotaShared }

func (Free) entitlement()       {}
func (Individual) entitlement() {}
func (Shared) entitlement()     {}

// ValidateEntitlement checks the variant specific fields.
func ValidateEntitlement(e Entitlement) error {
	switch v := e.(type) {
	case Free:
		return nil
	case Individual:
		if v.Quota <= 0 {
			return domain.NewValidationError("quotaValue", "quotaValue must be greater than zero for INDIVIDUAL quota")
		}
		return nil
	case Shared:
		if v.PoolID == uuid.Nil {
			return domain.NewValidationError("quotaPoolId", "quotaPoolId is required for SHARED quota")
		}
		return nil
	case nil:
		return domain.NewValidationError("quotaType", "quotaType is required")
	default:
		return domain.NewValidationError("quotaType", fmt.Sprintf("unsupported quota type %T", e))
	}
}

// EntitlementFromParts rebuilds an Entitlement from its flattened form.
// pool is only consulted for SHARED and may be nil otherwise.
func EntitlementFromParts(quotaType QuotaType, quotaValue *int, pool *QuotaPool) (Entitlement, error) {
	switch quotaType {
	case QuotaFree:
		return Free{}, nil
	case QuotaIndividual:
		if quotaValue == nil {
			return nil, domain.NewValidationError("quotaValue", "quotaValue is required for INDIVIDUAL quota")
		}
		return Individual{Quota: *quotaValue}, nil
	case QuotaShared:
		if pool == nil {
			return nil, domain.NewValidationError("quotaPoolId", "quotaPoolId is required for SHARED quota")
		}
		return Shared{PoolID: pool.ID, TotalQuota: pool.TotalQuota}, nil
	default:
		return nil, domain.NewValidationError("quotaType", fmt.Sprintf("unsupported quota type %q", quotaType))
	}
}
