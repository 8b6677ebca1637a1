package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for a ledger transaction.
// Rows are append-only; the unique index on sequence_id turns concurrent
// allocations into a duplicate-key error.
type TransactionModel struct {
	AggregateModel
	SequenceID  int64                `gorm:"not null;uniqueIndex:idx_ledger_sequence"`
	Date        time.Time            `gorm:"not null;index"`
	Description string               `gorm:"type:varchar(500);not null"`
	TotalDebit  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalCredit decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaymentMode string               `gorm:"type:varchar(100)"`
	CreatedBy   string               `gorm:"type:varchar(200)"`
	OrderID     *uuid.UUID           `gorm:"type:uuid;index"`
	OrderNumber *int64               `gorm:"index"`
	Entries     []JournalEntryModel  `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	t := &ledger.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SequenceID:        m.SequenceID,
		Date:              m.Date,
		Description:       m.Description,
		TotalDebit:        m.TotalDebit,
		TotalCredit:       m.TotalCredit,
		PaymentMode:       m.PaymentMode,
		CreatedBy:         m.CreatedBy,
		OrderID:           m.OrderID,
		OrderNumber:       m.OrderNumber,
		Entries:           make([]ledger.JournalEntry, len(m.Entries)),
	}
	for i, e := range m.Entries {
		t.Entries[i] = ledger.JournalEntry{
			ID:         e.ID,
			AccountRef: e.AccountRef,
			Type:       ledger.EntryType(e.Type),
			Amount:     e.Amount,
		}
	}
	return t
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.SequenceID = t.SequenceID
	m.Date = t.Date
	m.Description = t.Description
	m.TotalDebit = t.TotalDebit
	m.TotalCredit = t.TotalCredit
	m.PaymentMode = t.PaymentMode
	m.CreatedBy = t.CreatedBy
	m.OrderID = t.OrderID
	m.OrderNumber = t.OrderNumber
	m.Entries = make([]JournalEntryModel, len(t.Entries))
	for i, e := range t.Entries {
		m.Entries[i] = JournalEntryModel{
			ID:            e.ID,
			TransactionID: t.ID,
			AccountRef:    e.AccountRef,
			Type:          e.Type.String(),
			Amount:        e.Amount,
		}
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// JournalEntryModel is the persistence model for one journal line.
type JournalEntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountRef    string          `gorm:"type:varchar(200);not null;index"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "ledger_journal_entries"
}
