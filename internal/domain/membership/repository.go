package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MembershipRepository defines the persistence contract for Membership aggregates.
type MembershipRepository interface {
	// FindByID retrieves a membership by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)

	// FindByIDForUpdate loads the membership and locks its row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Membership, error)

	// FindByUser lists every membership a user holds, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error)

	// FindBookableByUser lists ACTIVE memberships of a user expiring after now.
	FindBookableByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Membership, error)

	// Save persists a new membership.
	Save(ctx context.Context, m *Membership) error

	// Update persists changes to an existing membership.
	Update(ctx context.Context, m *Membership) error
}
