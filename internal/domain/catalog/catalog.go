// Package catalog models what a membership product entitles its holder to book.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/pkg/domain"
)

// Item is a bookable class type. Sessions inherit its capacity.
type Item struct {
	ID        uuid.UUID
	Name      string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem creates an active class type.
func NewItem(name string, capacity int) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if capacity <= 0 {
		return nil, domain.NewValidationError("capacity", "capacity must be greater than zero")
	}
	now := time.Now().UTC()
	return &Item{
		ID:        uuid.New(),
		Name:      name,
		Capacity:  capacity,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// QuotaPool is an entitlement bucket shared by every product item that points to it.
type QuotaPool struct {
	ID         uuid.UUID
	Name       string
	TotalQuota int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewQuotaPool creates a pool holding totalQuota bookings.
func NewQuotaPool(name string, totalQuota int) (*QuotaPool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if totalQuota <= 0 {
		return nil, domain.NewValidationError("totalQuota", "totalQuota must be greater than zero")
	}
	now := time.Now().UTC()
	return &QuotaPool{
		ID:         uuid.New(),
		Name:       name,
		TotalQuota: totalQuota,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ErrPoolInUse is returned when deleting a pool that still has usage or references.
const ErrPoolInUse = "Quota pool is in use"

// CanDelete reports whether a pool with the given usage rows and product item references may be removed.
func (p *QuotaPool) CanDelete(usageRows, productItemRefs int64) error {
	if usageRows > 0 || productItemRefs > 0 {
		return domain.NewRuleViolation(ErrPoolInUse).
			WithDetail("usageRows", usageRows).
			WithDetail("productItems", productItemRefs)
	}
	return nil
}

// ProductItem grants one class type under one entitlement.
type ProductItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ItemID      uuid.UUID
	Entitlement Entitlement
}

// Product is a purchasable membership plan.
type Product struct {
	ID           uuid.UUID
	Name         string
	PriceCents   int64
	DurationDays int
	IsActive     bool
	Items        []ProductItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ItemGrant describes one entitlement when creating a product.
type ItemGrant struct {
	ItemID      uuid.UUID
	Entitlement Entitlement
}

// NewProduct creates an active product. A product grants each class type at most once.
func NewProduct(name string, priceCents int64, durationDays int, grants []ItemGrant) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if priceCents < 0 {
		return nil, domain.NewValidationError("priceCents", "priceCents cannot be negative")
	}
	if durationDays <= 0 {
		return nil, domain.NewValidationError("durationDays", "durationDays must be greater than zero")
	}
	if len(grants) == 0 {
		return nil, domain.NewValidationError("items", "a product must include at least one class type")
	}

	now := time.Now().UTC()
	p := &Product{
		ID:           uuid.New(),
		Name:         name,
		PriceCents:   priceCents,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	seen := make(map[uuid.UUID]bool, len(grants))
	for _, g := range grants {
		if seen[g.ItemID] {
			return nil, domain.NewValidationError("items", "a class type can only be included once per product").
				WithDetail("itemId", g.ItemID.String())
		}
		seen[g.ItemID] = true
		if err := ValidateEntitlement(g.Entitlement); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, ProductItem{
			ID:          uuid.New(),
			ProductID:   p.ID,
			ItemID:      g.ItemID,
			Entitlement: g.Entitlement,
		})
	}
	return p, nil
}

// ItemFor returns the product item granting itemID.
func (p *Product) ItemFor(itemID uuid.UUID) (*ProductItem, bool) {
	for i := range p.Items {
		if p.Items[i].ItemID == itemID {
			return &p.Items[i], true
		}
	}
	return nil, false
}
