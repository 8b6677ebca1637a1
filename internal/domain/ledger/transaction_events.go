package ledger

import (
	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionCreatedEvent is raised when a ledger transaction is created
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	SequenceID    int64           `json:"sequence_id"`
	Description   string          `json:"description"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
}

// NewTransactionCreatedEvent creates a new TransactionCreatedEvent
func NewTransactionCreatedEvent(t *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LedgerTransactionCreated", "LedgerTransaction", t.ID),
		TransactionID:   t.ID,
		SequenceID:      t.SequenceID,
		Description:     t.Description,
		TotalDebit:      t.TotalDebit,
		TotalCredit:     t.TotalCredit,
	}
}
