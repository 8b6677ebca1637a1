package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerService provides read access to the ledger. Writes only happen
// through the posting and payment flows; there is no create endpoint here.
type LedgerService struct {
	ledgerRepo ledger.TransactionRepository
	logger     *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledgerRepo ledger.TransactionRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// GetByID returns a single transaction
func (s *LedgerService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	t, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(t)
	return &resp, nil
}

// GetByOrder returns all transactions back-referencing an order
func (s *LedgerService) GetByOrder(ctx context.Context, orderID uuid.UUID) ([]TransactionResponse, error) {
	transactions, err := s.ledgerRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(transactions), nil
}

// List returns a paginated list of transactions
func (s *LedgerService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	transactions, err := s.ledgerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ledgerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToTransactionResponses(transactions), total, filter.Page, filter.PageSize)
	return &result, nil
}
