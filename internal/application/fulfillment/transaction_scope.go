package fulfillment

import (
	"context"

	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the order and ledger
// repositories. When a function is executed within a scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Vendor posting depends on this: the ledger insert and the
// order's step mutation must never be applied partially.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// Orders returns the order repository scoped to the current transaction
	Orders() order.OrderRepository
	// Ledger returns the ledger repository scoped to the current transaction
	Ledger() ledger.TransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	orderRepo  order.OrderRepository
	ledgerRepo ledger.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(orderRepo order.OrderRepository, ledgerRepo ledger.TransactionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:  orderRepo,
		ledgerRepo: ledgerRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository.
func (s *NoOpTransactionScope) Orders() order.OrderRepository {
	return s.orderRepo
}

// Ledger returns the ledger repository.
func (s *NoOpTransactionScope) Ledger() ledger.TransactionRepository {
	return s.ledgerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
