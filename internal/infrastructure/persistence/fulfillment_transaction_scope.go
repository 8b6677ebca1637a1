package persistence

import (
	"context"

	"github.com/opsdesk/backend/internal/application/fulfillment"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements fulfillment.TransactionScope using GORM
// transactions. The repositories handed to the function share one underlying
// database transaction, so an error anywhere rolls back every write.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

var _ fulfillment.TransactionScope = (*GormTransactionScope)(nil)

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos fulfillment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Orders() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Ledger() ledger.TransactionRepository {
	return NewGormLedgerRepository(r.tx)
}
