package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository persists class types.
type ItemRepository interface {
	Save(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
}

// QuotaPoolRepository persists shared quota pools.
type QuotaPoolRepository interface {
	Save(ctx context.Context, pool *QuotaPool) error
	FindByID(ctx context.Context, id uuid.UUID) (*QuotaPool, error)
	List(ctx context.Context) ([]*QuotaPool, error)
	// References counts usage rows and product items pointing at the pool.
	References(ctx context.Context, id uuid.UUID) (usageRows, productItems int64, err error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository persists products together with their product items.
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	List(ctx context.Context, activeOnly bool) ([]*Product, error)
}
