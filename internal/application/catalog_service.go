package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/pkg/database"
	"go.uber.org/zap"
)

// CreateItemRequest is the DTO for creating a class type.
type CreateItemRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

// CreateQuotaPoolRequest is the DTO for creating a shared quota pool.
type CreateQuotaPoolRequest struct {
	Name       string `json:"name" binding:"required,max=120"`
	TotalQuota int    `json:"totalQuota" binding:"required,gt=0"`
}

// ProductItemInput grants one class type inside CreateProductRequest.
type ProductItemInput struct {
	ItemID      uuid.UUID  `json:"itemId" binding:"required"`
	QuotaType   string     `json:"quotaType" binding:"required,oneof=FREE INDIVIDUAL SHARED"`
	QuotaValue  *int       `json:"quotaValue"`
	QuotaPoolID *uuid.UUID `json:"quotaPoolId"`
}

// CreateProductRequest is the DTO for creating a membership product.
type CreateProductRequest struct {
	Name         string             `json:"name" binding:"required,max=120"`
	PriceCents   int64              `json:"priceCents" binding:"gte=0"`
	DurationDays int                `json:"durationDays" binding:"required,gt=0"`
	Items        []ProductItemInput `json:"items" binding:"required,min=1,dive"`
}

// ItemDTO is the API response DTO for class types.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuotaPoolDTO is the API response DTO for quota pools.
type QuotaPoolDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TotalQuota int       `json:"totalQuota"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProductItemDTO is one entitlement of a product.
type ProductItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ItemID      uuid.UUID  `json:"itemId"`
	QuotaType   string     `json:"quotaType"`
	QuotaValue  *int       `json:"quotaValue,omitempty"`
	QuotaPoolID *uuid.UUID `json:"quotaPoolId,omitempty"`
}

// ProductDTO is the API response DTO for products.
type ProductDTO struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	PriceCents   int64            `json:"priceCents"`
	DurationDays int              `json:"durationDays"`
	IsActive     bool             `json:"isActive"`
	Items        []ProductItemDTO `json:"items"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// CatalogService manages class types, quota pools and products.
type CatalogService struct {
	tx       database.Transactor
	items    catalog.ItemRepository
	pools    catalog.QuotaPoolRepository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	tx database.Transactor,
	items catalog.ItemRepository,
	pools catalog.QuotaPoolRepository,
	products catalog.ProductRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{tx: tx, items: items, pools: pools, products: products, logger: logger}
}

// CreateItem creates a class type.
func (s *CatalogService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemDTO, error) {
	item, err := catalog.NewItem(req.Name, req.Capacity)
	if err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("item created", zap.String("item_id", item.ID.String()), zap.Int("capacity", item.Capacity))
	dto := toItemDTO(item)
	return &dto, nil
}

// ListItems lists every class type.
func (s *CatalogService) ListItems(ctx context.Context) ([]ItemDTO, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos, nil
}

// CreateQuotaPool creates a shared quota pool.
func (s *CatalogService) CreateQuotaPool(ctx context.Context, req CreateQuotaPoolRequest) (*QuotaPoolDTO, error) {
	pool, err := catalog.NewQuotaPool(req.Name, req.TotalQuota)
	if err != nil {
		return nil, err
	}
	if err := s.pools.Save(ctx, pool); err != nil {
		return nil, err
	}
	s.logger.Info("quota pool created", zap.String("quota_pool_id", pool.ID.String()), zap.Int("total_quota", pool.TotalQuota))
	dto := toQuotaPoolDTO(pool)
	return &dto, nil
}

// ListQuotaPools lists every quota pool.
func (s *CatalogService) ListQuotaPools(ctx context.Context) ([]QuotaPoolDTO, error) {
	pools, err := s.pools.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]QuotaPoolDTO, len(pools))
	for i, p := range pools {
		dtos[i] = toQuotaPoolDTO(p)
	}
	return dtos, nil
}

// DeleteQuotaPool removes a pool nothing consumes or references.
func (s *CatalogService) DeleteQuotaPool(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		pool, err := s.pools.FindByID(ctx, id)
		if err != nil {
			return err
		}
		usageRows, productItems, err := s.pools.References(ctx, id)
		if err != nil {
			return err
		}
		if err := pool.CanDelete(usageRows, productItems); err != nil {
			return err
		}
		return s.pools.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("quota pool deleted", zap.String("quota_pool_id", id.String()))
	return nil
}

// CreateProduct creates a product. Every item must exist and every SHARED grant must name an existing pool.
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	var product *catalog.Product

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		grants := make([]catalog.ItemGrant, 0, len(req.Items))
		for _, in := range req.Items {
			if _, err := s.items.FindByID(ctx, in.ItemID); err != nil {
				return err
			}

			var pool *catalog.QuotaPool
			if catalog.QuotaType(in.QuotaType) == catalog.QuotaShared && in.QuotaPoolID != nil {
				p, err := s.pools.FindByID(ctx, *in.QuotaPoolID)
				if err != nil {
					return err
				}
				pool = p
			}

			ent, err := catalog.EntitlementFromParts(catalog.QuotaType(in.QuotaType), in.QuotaValue, pool)
			if err != nil {
				return err
			}
			grants = append(grants, catalog.ItemGrant{ItemID: in.ItemID, Entitlement: ent})
		}

		var err error
		product, err = catalog.NewProduct(req.Name, req.PriceCents, req.DurationDays, grants)
		if err != nil {
			return err
		}
		return s.products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.Int("items", len(product.Items)),
	)
	dto := toProductDTO(product)
	return &dto, nil
}

// GetProduct retrieves a product with its entitlements.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toProductDTO(product)
	return &dto, nil
}

// ListProducts lists products, only the active ones when activeOnly is set.
func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error) {
	products, err := s.products.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos, nil
}

func toItemDTO(item *catalog.Item) ItemDTO {
	return ItemDTO{
		ID:        item.ID,
		Name:      item.Name,
		Capacity:  item.Capacity,
		IsActive:  item.IsActive,
		CreatedAt: item.CreatedAt,
	}
}

func toQuotaPoolDTO(p *catalog.QuotaPool) QuotaPoolDTO {
	return QuotaPoolDTO{ID: p.ID, Name: p.Name, TotalQuota: p.TotalQuota, CreatedAt: p.CreatedAt}
}

func toProductDTO(p *catalog.Product) ProductDTO {
	items := make([]ProductItemDTO, len(p.Items))
	for i, pi := range p.Items {
		dto := ProductItemDTO{ID: pi.ID, ItemID: pi.ItemID, QuotaType: string(pi.Entitlement.QuotaType())}
		switch e := pi.Entitlement.(type) {
		case catalog.Individual:
			quota := e.Quota
			dto.QuotaValue = &quota
		case catalog.Shared:
			poolID := e.PoolID
			dto.QuotaPoolID = &poolID
		}
		items[i] = dto
	}
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		PriceCents:   p.PriceCents,
		DurationDays: p.DurationDays,
		IsActive:     p.IsActive,
		Items:        items,
		CreatedAt:    p.CreatedAt,
	}
}
