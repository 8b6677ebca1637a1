package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClearingAccountRef is the fixed internal account credited when a vendor
// cost is posted. Vendor payouts later settle against this account.
const ClearingAccountRef = "outsourcing-clearing"

// SalesAccountRef is the revenue account credited when a customer bill is
// settled.
const SalesAccountRef = "sales"

// EntryType distinguishes the two sides of a journal line
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the type is a valid EntryType
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// JournalEntry is one debit or credit line within a transaction
type JournalEntry struct {
	ID         uuid.UUID
	AccountRef string
	Type       EntryType
	Amount     decimal.Decimal
}

// Transaction is an immutable financial transaction with balanced journal
// lines and a monotonically increasing sequence id. There is no update or
// delete path: once saved, a transaction never changes.
type Transaction struct {
	shared.BaseAggregateRoot
	SequenceID  int64
	Date        time.Time
	Description string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	PaymentMode string
	CreatedBy   string
	OrderID     *uuid.UUID
	OrderNumber *int64
	Entries     []JournalEntry
}

// EntryInput is a journal line supplied to NewTransaction
type EntryInput struct {
	AccountRef string
	Type       EntryType
	Amount     decimal.Decimal
}

// NewTransaction creates a balanced transaction from the given journal lines.
// Every transaction must satisfy sum(debits) == sum(credits); the totals are
// derived from the lines, never supplied by the caller.
func NewTransaction(sequenceID int64, date time.Time, description, paymentMode, createdBy string, entries []EntryInput) (*Transaction, error) {
	if sequenceID <= 0 {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Transaction sequence id must be positive")
	}
	if len(entries) == 0 {
		return nil, shared.NewDomainError("INVALID_ENTRIES", "Transaction requires at least one journal line")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Transaction description is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	lines := make([]JournalEntry, 0, len(entries))
	for _, in := range entries {
		account := strings.TrimSpace(in.AccountRef)
		if account == "" {
			return nil, shared.NewDomainError("INVALID_ACCOUNT", "Journal line account reference is required")
		}
		if !in.Type.IsValid() {
			return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Journal line type must be DEBIT or CREDIT")
		}
		if in.Amount.IsNegative() || in.Amount.IsZero() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Journal line amount must be positive")
		}
		switch in.Type {
		case EntryTypeDebit:
			totalDebit = totalDebit.Add(in.Amount)
		case EntryTypeCredit:
			totalCredit = totalCredit.Add(in.Amount)
		}
		lines = append(lines, JournalEntry{
			ID:         uuid.New(),
			AccountRef: account,
			Type:       in.Type,
			Amount:     in.Amount,
		})
	}

	if !totalDebit.Equal(totalCredit) {
		return nil, shared.NewDomainError("UNBALANCED_TRANSACTION", "Debit and credit totals must be equal")
	}

	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SequenceID:        sequenceID,
		Date:              date,
		Description:       description,
		TotalDebit:        totalDebit,
		TotalCredit:       totalCredit,
		PaymentMode:       strings.TrimSpace(paymentMode),
		CreatedBy:         strings.TrimSpace(createdBy),
		Entries:           lines,
	}

	tx.AddDomainEvent(NewTransactionCreatedEvent(tx))

	return tx, nil
}

// NewVendorPostingTransaction creates the balanced two-line transaction for a
// vendor cost posting: Debit the vendor account, Credit the internal
// outsourcing clearing account.
func NewVendorPostingTransaction(sequenceID int64, vendorRef, description, createdBy string, amount decimal.Decimal) (*Transaction, error) {
	vendorRef = strings.TrimSpace(vendorRef)
	if vendorRef == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor account reference is required")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Posting amount must be positive")
	}

	return NewTransaction(sequenceID, time.Now(), description, "", createdBy, []EntryInput{
		{AccountRef: vendorRef, Type: EntryTypeDebit, Amount: amount},
		{AccountRef: ClearingAccountRef, Type: EntryTypeCredit, Amount: amount},
	})
}

// LinkOrder attaches the order back-reference. Only allowed before the
// transaction is saved; the reference is informational, not a foreign key.
func (t *Transaction) LinkOrder(orderID uuid.UUID, orderNumber int64) {
	t.OrderID = &orderID
	t.OrderNumber = &orderNumber
}

// IsBalanced verifies the balance invariant against the stored lines
func (t *Transaction) IsBalanced() bool {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, e := range t.Entries {
		switch e.Type {
		case EntryTypeDebit:
			debit = debit.Add(e.Amount)
		case EntryTypeCredit:
			credit = credit.Add(e.Amount)
		}
	}
	return debit.Equal(credit) && debit.Equal(t.TotalDebit) && credit.Equal(t.TotalCredit)
}

// DebitTotal returns the sum of all debit lines
func (t *Transaction) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		if e.Type == EntryTypeDebit {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// CreditTotal returns the sum of all credit lines
func (t *Transaction) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		if e.Type == EntryTypeCredit {
			total = total.Add(e.Amount)
		}
	}
	return total
}
