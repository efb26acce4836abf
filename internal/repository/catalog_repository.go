package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
	"github.com/martinsuhendra/manta/pkg/database"
	"gorm.io/gorm"
)

// ItemModel is the GORM persistence model for the items table.
type ItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(120);not null"`
	Capacity  int       `gorm:"not null;check:capacity > 0"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (ItemModel) TableName() string { return "items" }

// QuotaPoolModel is the GORM persistence model for the quota_pools table.
type QuotaPoolModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(120);not null"`
	TotalQuota int       `gorm:"not null;check:total_quota > 0"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (QuotaPoolModel) TableName() string { return "quota_pools" }

// ProductModel is the GORM persistence model for the products table.
type ProductModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Name         string             `gorm:"type:varchar(120);not null"`
	PriceCents   int64              `gorm:"not null"`
	DurationDays int                `gorm:"not null"`
	IsActive     bool               `gorm:"not null;default:true"`
	Items        []ProductItemModel `gorm:"foreignKey:ProductID"`
	CreatedAt    time.Time          `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time          `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (ProductModel) TableName() string { return "products" }

// ProductItemModel is the GORM persistence model for the product_items table.
type ProductItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_items_product_item"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_items_product_item"`
	QuotaType   string          `gorm:"type:varchar(20);not null"`
	QuotaValue  *int
	QuotaPoolID *uuid.UUID      `gorm:"type:uuid;index"`
	QuotaPool   *QuotaPoolModel `gorm:"foreignKey:QuotaPoolID"`
}

// TableName specifies the table name for GORM.
func (ProductItemModel) TableName() string { return "product_items" }

// ItemRepositoryImpl is the GORM-based implementation of catalog.ItemRepository.
type ItemRepositoryImpl struct {
	db *gorm.DB
}

// NewItemRepository creates a new GORM-based item repository.
func NewItemRepository(db *gorm.DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

// Save persists a new item.
func (r *ItemRepositoryImpl) Save(ctx context.Context, item *catalog.Item) error {
	m := ItemModel{
		ID:        item.ID,
		Name:      item.Name,
		Capacity:  item.Capacity,
		IsActive:  item.IsActive,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	return translate(database.Conn(ctx, r.db).Create(&m).Error, "Item", item.ID.String())
}

// FindByID retrieves an item by ID.
func (r *ItemRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var m ItemModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Item", id.String())
	}
	return itemToDomain(&m), nil
}

// List returns every item ordered by name.
func (r *ItemRepositoryImpl) List(ctx context.Context) ([]*catalog.Item, error) {
	var models []ItemModel
	if err := database.Conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]*catalog.Item, len(models))
	for i := range models {
		items[i] = itemToDomain(&models[i])
	}
	return items, nil
}

func itemToDomain(m *ItemModel) *catalog.Item {
	return &catalog.Item{
		ID:        m.ID,
		Name:      m.Name,
		Capacity:  m.Capacity,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// QuotaPoolRepositoryImpl is the GORM-based implementation of catalog.QuotaPoolRepository.
type QuotaPoolRepositoryImpl struct {
	db *gorm.DB
}

// NewQuotaPoolRepository creates a new GORM-based quota pool repository.
func NewQuotaPoolRepository(db *gorm.DB) *QuotaPoolRepositoryImpl {
	return &QuotaPoolRepositoryImpl{db: db}
}

// Save persists a new pool.
func (r *QuotaPoolRepositoryImpl) Save(ctx context.Context, pool *catalog.QuotaPool) error {
	m := QuotaPoolModel{
		ID:         pool.ID,
		Name:       pool.Name,
		TotalQuota: pool.TotalQuota,
		CreatedAt:  pool.CreatedAt,
		UpdatedAt:  pool.UpdatedAt,
	}
	return translate(database.Conn(ctx, r.db).Create(&m).Error, "Quota pool", pool.ID.String())
}

// FindByID retrieves a pool by ID.
func (r *QuotaPoolRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*catalog.QuotaPool, error) {
	var m QuotaPoolModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Quota pool", id.String())
	}
	return poolToDomain(&m), nil
}

// List returns every pool ordered by name.
func (r *QuotaPoolRepositoryImpl) List(ctx context.Context) ([]*catalog.QuotaPool, error) {
	var models []QuotaPoolModel
	if err := database.Conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	pools := make([]*catalog.QuotaPool, len(models))
	for i := range models {
		pools[i] = poolToDomain(&models[i])
	}
	return pools, nil
}

// References counts usage rows and product items pointing at the pool.
func (r *QuotaPoolRepositoryImpl) References(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	conn := database.Conn(ctx, r.db)

	var usageRows int64
	if err := conn.Model(&QuotaUsageModel{}).Where("quota_pool_id = ?", id).Count(&usageRows).Error; err != nil {
		return 0, 0, err
	}
	var productItems int64
	if err := conn.Model(&ProductItemModel{}).Where("quota_pool_id = ?", id).Count(&productItems).Error; err != nil {
		return 0, 0, err
	}
	return usageRows, productItems, nil
}

// Delete removes a pool.
func (r *QuotaPoolRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&QuotaPoolModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "Quota pool", id.String())
	}
	return nil
}

func poolToDomain(m *QuotaPoolModel) *catalog.QuotaPool {
	return &catalog.QuotaPool{
		ID:         m.ID,
		Name:       m.Name,
		TotalQuota: m.TotalQuota,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ProductRepositoryImpl is the GORM-based implementation of catalog.ProductRepository.
type ProductRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository creates a new GORM-based product repository.
func NewProductRepository(db *gorm.DB) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{db: db}
}

// Save persists a product and its product items.
func (r *ProductRepositoryImpl) Save(ctx context.Context, p *catalog.Product) error {
	m := productToModel(p)
	return translate(database.Conn(ctx, r.db).Create(m).Error, "Product", p.ID.String())
}

// FindByID retrieves a product with its items and their pools.
func (r *ProductRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m ProductModel
	if err := r.withItems(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "Product", id.String())
	}
	return productToDomain(&m)
}

// FindByIDs retrieves several products keyed by ID. Missing IDs are absent from the map.
func (r *ProductRepositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []ProductModel
	if err := r.withItems(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		p, err := productToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, nil
}

// List returns products ordered by price.
func (r *ProductRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]*catalog.Product, error) {
	q := r.withItems(ctx).Order("price_cents ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var models []ProductModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	products := make([]*catalog.Product, 0, len(models))
	for i := range models {
		p, err := productToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepositoryImpl) withItems(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).Preload("Items").Preload("Items.QuotaPool")
}

func productToModel(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		ID:           p.ID,
		Name:         p.Name,
		PriceCents:   p.PriceCents,
		DurationDays: p.DurationDays,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, pi := range p.Items {
		im := ProductItemModel{
			ID:        pi.ID,
			ProductID: p.ID,
			ItemID:    pi.ItemID,
			QuotaType: string(pi.Entitlement.QuotaType()),
		}
		switch e := pi.Entitlement.(type) {
		case catalog.Individual:
			quota := e.Quota
			im.QuotaValue = &quota
		case catalog.Shared:
			poolID := e.PoolID
			im.QuotaPoolID = &poolID
		}
		m.Items = append(m.Items, im)
	}
	return m
}

func productToDomain(m *ProductModel) (*catalog.Product, error) {
	p := &catalog.Product{
		ID:           m.ID,
		Name:         m.Name,
		PriceCents:   m.PriceCents,
		DurationDays: m.DurationDays,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, im := range m.Items {
		var pool *catalog.QuotaPool
		if im.QuotaPool != nil {
			pool = poolToDomain(im.QuotaPool)
		}
		e, err := catalog.EntitlementFromParts(catalog.QuotaType(im.QuotaType), im.QuotaValue, pool)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, catalog.ProductItem{
			ID:          im.ID,
			ProductID:   im.ProductID,
			ItemID:      im.ItemID,
			Entitlement: e,
		})
	}
	return p, nil
}
