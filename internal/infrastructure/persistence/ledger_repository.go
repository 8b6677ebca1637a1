package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.TransactionRepository using GORM.
// The ledger is append-only: Save only ever inserts.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

var _ ledger.TransactionRepository = (*GormLedgerRepository)(nil)

// FindByID finds a transaction by its internal ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var m models.TransactionModel
	if err := r.db.WithContext(ctx).Preload("Entries").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindBySequenceID finds a transaction by its sequential id
func (r *GormLedgerRepository) FindBySequenceID(ctx context.Context, sequenceID int64) (*ledger.Transaction, error) {
	var m models.TransactionModel
	if err := r.db.WithContext(ctx).Preload("Entries").
		First(&m, "sequence_id = ?", sequenceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByOrder finds all transactions back-referencing an order
func (r *GormLedgerRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ledger.Transaction, error) {
	var ms []models.TransactionModel
	if err := r.db.WithContext(ctx).Preload("Entries").
		Where("order_id = ?", orderID).
		Order("sequence_id asc").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(ms), nil
}

// FindAll finds transactions with filtering and pagination
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Transaction, error) {
	var ms []models.TransactionModel
	query := applyFilter(
		r.db.WithContext(ctx).Preload("Entries").Model(&models.TransactionModel{}),
		filter, "description", "created_by",
	)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(ms), nil
}

// Save inserts a new transaction with its journal lines
func (r *GormLedgerRepository) Save(ctx context.Context, t *ledger.Transaction) error {
	m := models.TransactionModelFromDomain(t)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// NextSequenceID allocates the next sequential transaction id (max+1).
// The unique index on sequence_id turns a concurrent allocation into
// shared.ErrAlreadyExists at save time.
func (r *GormLedgerRepository) NextSequenceID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Select("COALESCE(MAX(sequence_id), 0) + 1").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Count counts transactions matching the filter
func (r *GormLedgerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applySearch(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter, "description", "created_by")
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainTransactions(ms []models.TransactionModel) []ledger.Transaction {
	transactions := make([]ledger.Transaction, len(ms))
	for i := range ms {
		transactions[i] = *ms[i].ToDomain()
	}
	return transactions
}
