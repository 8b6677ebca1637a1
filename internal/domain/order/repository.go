package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its human-facing sequential number
	FindByOrderNumber(ctx context.Context, orderNumber int64) (*Order, error)

	// FindByIDs finds the orders with the given IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindNeedingMigration finds a batch of orders still in the legacy shape
	FindNeedingMigration(ctx context.Context, limit int) ([]Order, error)

	// Save creates or updates an order together with its owned collections
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with an optimistic version check; returns
	// shared.ErrConcurrencyConflict when the stored version has moved on
	SaveWithLock(ctx context.Context, o *Order) error

	// NextOrderNumber allocates the next sequential order number.
	// Allocation is max+1 over the stored orders; the unique index on
	// order_number turns a concurrent race into shared.ErrAlreadyExists
	// at save time, which callers retry once.
	NextOrderNumber(ctx context.Context) (int64, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
