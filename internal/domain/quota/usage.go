// Package quota tracks consumed entitlements and decides booking eligibility.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/catalog"
)

// ScopeKind says whether a counter belongs to one product item or a shared pool.
type ScopeKind string

const (
	ScopeItem ScopeKind = "item"
	ScopePool ScopeKind = "pool"
)

// Scope identifies the counter a booking draws from.
type Scope struct {
	Kind ScopeKind
	ID   uuid.UUID
}

// ItemScope is the counter of an INDIVIDUAL product item.
func ItemScope(productItemID uuid.UUID) Scope {
	return Scope{Kind: ScopeItem, ID: productItemID}
}

// PoolScope is the counter of a SHARED pool.
func PoolScope(poolID uuid.UUID) Scope {
	return Scope{Kind: ScopePool, ID: poolID}
}

// Key is the persisted, unique-per-membership form of the scope.
func (s Scope) Key() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// ScopeFor returns the counter a product item consumes. FREE items consume none.
func ScopeFor(pi *catalog.ProductItem) (Scope, bool) {
	switch e := pi.Entitlement.(type) {
	case catalog.Individual:
		return ItemScope(pi.ID), true
	case catalog.Shared:
		return PoolScope(e.PoolID), true
	default:
		return Scope{}, false
	}
}

// Usage is one membership's counter for one scope. UsedCount never drops below zero.
type Usage struct {
	ID           uuid.UUID
	MembershipID uuid.UUID
	Scope        Scope
	UsedCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ledger is a read-only view of a membership's counters keyed by Scope.Key.
type Ledger map[string]int

// NewLedger indexes usage rows.
func NewLedger(usages []Usage) Ledger {
	l := make(Ledger, len(usages))
	for _, u := range usages {
		l[u.Scope.Key()] += u.UsedCount
	}
	return l
}

// Used returns the consumed count for s, zero when no row exists yet.
func (l Ledger) Used(s Scope) int {
	return l[s.Key()]
}

// UsageRepository is the ledger's persistence. Increment and Decrement must be atomic.
type UsageRepository interface {
	// Increment creates the row with count 1 or adds one to the existing row.
	Increment(ctx context.Context, membershipID uuid.UUID, scope Scope) error
	// Decrement subtracts one, leaving a zero count untouched.
	Decrement(ctx context.Context, membershipID uuid.UUID, scope Scope) error
	FindByMembership(ctx context.Context, membershipID uuid.UUID) ([]Usage, error)
	FindByMemberships(ctx context.Context, membershipIDs []uuid.UUID) (map[uuid.UUID][]Usage, error)
}
