package payment

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository defines the persistence contract for Transaction aggregates.
type TransactionRepository interface {
	// FindByID retrieves a transaction by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByOrderID retrieves a transaction by the order ID sent to the gateway.
	FindByOrderID(ctx context.Context, orderID string) (*Transaction, error)

	// Save persists a new transaction.
	Save(ctx context.Context, t *Transaction) error

	// Update persists changes with optimistic locking on version.
	Update(ctx context.Context, t *Transaction) error
}
