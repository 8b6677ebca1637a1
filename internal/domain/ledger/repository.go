package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
)

// TransactionRepository defines the interface for ledger persistence.
// The ledger is append-only: there is no update or delete method.
type TransactionRepository interface {
	// FindByID finds a transaction by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindBySequenceID finds a transaction by its sequential id
	FindBySequenceID(ctx context.Context, sequenceID int64) (*Transaction, error)

	// FindByOrder finds all transactions back-referencing an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error)

	// FindAll finds transactions with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Transaction, error)

	// Save inserts a new transaction; returns shared.ErrAlreadyExists when
	// the sequence id collides with a concurrently allocated one
	Save(ctx context.Context, t *Transaction) error

	// NextSequenceID allocates the next sequential transaction id
	// (max+1 over the stored transactions, guarded by a unique index)
	NextSequenceID(ctx context.Context) (int64, error)

	// Count counts transactions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
