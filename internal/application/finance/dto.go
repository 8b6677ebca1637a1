package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/shared/valueobject"
)

// JournalEntryResponse represents one journal line in responses.
// Amounts are currency-tagged on the wire.
type JournalEntryResponse struct {
	ID         uuid.UUID         `json:"id"`
	AccountRef string            `json:"account_ref"`
	Type       string            `json:"type"`
	Amount     valueobject.Money `json:"amount"`
}

// TransactionResponse represents a ledger transaction in responses
type TransactionResponse struct {
	ID          uuid.UUID              `json:"id"`
	SequenceID  int64                  `json:"sequence_id"`
	Date        time.Time              `json:"date"`
	Description string                 `json:"description"`
	TotalDebit  valueobject.Money      `json:"total_debit"`
	TotalCredit valueobject.Money      `json:"total_credit"`
	PaymentMode string                 `json:"payment_mode,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	OrderID     *uuid.UUID             `json:"order_id,omitempty"`
	OrderNumber *int64                 `json:"order_number,omitempty"`
	Entries     []JournalEntryResponse `json:"entries"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction to a response
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	entries := make([]JournalEntryResponse, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = JournalEntryResponse{
			ID:         e.ID,
			AccountRef: e.AccountRef,
			Type:       e.Type.String(),
			Amount:     valueobject.NewMoneyINR(e.Amount),
		}
	}
	return TransactionResponse{
		ID:          t.ID,
		SequenceID:  t.SequenceID,
		Date:        t.Date,
		Description: t.Description,
		TotalDebit:  valueobject.NewMoneyINR(t.TotalDebit),
		TotalCredit: valueobject.NewMoneyINR(t.TotalCredit),
		PaymentMode: t.PaymentMode,
		CreatedBy:   t.CreatedBy,
		OrderID:     t.OrderID,
		OrderNumber: t.OrderNumber,
		Entries:     entries,
		CreatedAt:   t.CreatedAt,
	}
}

// ToTransactionResponses converts domain transactions to responses
func ToTransactionResponses(transactions []ledger.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = ToTransactionResponse(&transactions[i])
	}
	return responses
}
