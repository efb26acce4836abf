package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemValidatesCapacity(t *testing.T) {
	_, err := NewItem("Yoga", 0)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	item, err := NewItem("  Yoga ", 12)
	require.NoError(t, err)
	assert.Equal(t, "Yoga", item.Name)
	assert.True(t, item.IsActive)
}

func TestNewProductRejectsDuplicateItem(t *testing.T) {
	itemID := uuid.New()
	_, err := NewProduct("Gold", 500000, 30, []ItemGrant{
		{ItemID: itemID, Entitlement: Free{}},
		{ItemID: itemID, Entitlement: Individual{Quota: 4}},
	})

	domErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "items", domErr.Details["field"])
}

func TestNewProductValidatesEntitlements(t *testing.T) {
	tests := []struct {
		name string
		e    Entitlement
		ok   bool
	}{
		{"free", Free{}, true},
		{"individual", Individual{Quota: 8}, true},
		{"individual zero", Individual{Quota: 0}, false},
		{"shared", Shared{PoolID: uuid.New(), TotalQuota: 10}, true},
		{"shared without pool", Shared{}, false},
		{"missing", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProduct("Plan", 1000, 30, []ItemGrant{{ItemID: uuid.New(), Entitlement: tc.e}})
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrValidation)
			}
		})
	}
}

func TestProductItemFor(t *testing.T) {
	yoga, pilates := uuid.New(), uuid.New()
	p, err := NewProduct("Plan", 1000, 30, []ItemGrant{{ItemID: yoga, Entitlement: Individual{Quota: 3}}})
	require.NoError(t, err)

	pi, ok := p.ItemFor(yoga)
	require.True(t, ok)
	assert.Equal(t, p.ID, pi.ProductID)
	assert.Equal(t, QuotaIndividual, pi.Entitlement.QuotaType())

	_, ok = p.ItemFor(pilates)
	assert.False(t, ok)
}

func TestQuotaPoolCanDelete(t *testing.T) {
	pool, err := NewQuotaPool("Studio", 10)
	require.NoError(t, err)

	assert.NoError(t, pool.CanDelete(0, 0))
	assert.EqualError(t, pool.CanDelete(1, 0), ErrPoolInUse)
	assert.EqualError(t, pool.CanDelete(0, 2), ErrPoolInUse)
}

func TestEntitlementFromParts(t *testing.T) {
	four := 4
	pool := &QuotaPool{ID: uuid.New(), TotalQuota: 10}

	e, err := EntitlementFromParts(QuotaIndividual, &four, nil)
	require.NoError(t, err)
	assert.Equal(t, Individual{Quota: 4}, e)

	e, err = EntitlementFromParts(QuotaShared, nil, pool)
	require.NoError(t, err)
	assert.Equal(t, Shared{PoolID: pool.ID, TotalQuota: 10}, e)

	_, err = EntitlementFromParts("BOGUS", nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
