package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
// The legacy_* columns carry the deprecated flat fields until migration
// clears them.
type OrderModel struct {
	AggregateModel
	OrderNumber    int64              `gorm:"not null;uniqueIndex:idx_orders_number"`
	CustomerID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	StatusHistory  []StatusEntryModel `gorm:"foreignKey:OrderID;references:ID"`
	Steps          []StepModel        `gorm:"foreignKey:OrderID;references:ID"`
	Items          []ItemModel        `gorm:"foreignKey:OrderID;references:ID"`
	SaleSubtotal   decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	StepsCostTotal decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	BillStatus     string             `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	PaidBy         string             `gorm:"type:varchar(200)"`
	PaidAt         *time.Time
	PaidLedgerID   *uuid.UUID      `gorm:"type:uuid"`
	LegacyAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LegacyQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LegacyRate     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LegacyRemark   string          `gorm:"type:varchar(500)"`
	LegacyPriority string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		SaleSubtotal:      m.SaleSubtotal,
		StepsCostTotal:    m.StepsCostTotal,
		BillStatus:        order.BillStatus(m.BillStatus),
		PaidBy:            m.PaidBy,
		PaidAt:            m.PaidAt,
		PaidLedgerID:      m.PaidLedgerID,
		Legacy: order.LegacyFields{
			Amount:   m.LegacyAmount,
			Quantity: m.LegacyQuantity,
			Rate:     m.LegacyRate,
			Remark:   m.LegacyRemark,
			Priority: m.LegacyPriority,
		},
		StatusHistory: make([]order.StatusEntry, len(m.StatusHistory)),
		Steps:         make([]order.Step, len(m.Steps)),
		Items:         make([]order.Item, len(m.Items)),
	}
	for i, e := range m.StatusHistory {
		o.StatusHistory[i] = *e.ToDomain()
	}
	for i, s := range m.Steps {
		o.Steps[i] = *s.ToDomain()
	}
	for i, it := range m.Items {
		o.Items[i] = *it.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order aggregate.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.SaleSubtotal = o.SaleSubtotal
	m.StepsCostTotal = o.StepsCostTotal
	m.BillStatus = o.BillStatus.String()
	m.PaidBy = o.PaidBy
	m.PaidAt = o.PaidAt
	m.PaidLedgerID = o.PaidLedgerID
	m.LegacyAmount = o.Legacy.Amount
	m.LegacyQuantity = o.Legacy.Quantity
	m.LegacyRate = o.Legacy.Rate
	m.LegacyRemark = o.Legacy.Remark
	m.LegacyPriority = o.Legacy.Priority
	m.StatusHistory = make([]StatusEntryModel, len(o.StatusHistory))
	for i, e := range o.StatusHistory {
		m.StatusHistory[i] = *StatusEntryModelFromDomain(o.ID, &e)
	}
	m.Steps = make([]StepModel, len(o.Steps))
	for i, s := range o.Steps {
		m.Steps[i] = *StepModelFromDomain(&s)
	}
	m.Items = make([]ItemModel, len(o.Items))
	for i, it := range o.Items {
		m.Items[i] = *ItemModelFromDomain(&it)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// StatusEntryModel is the persistence model for one status history entry.
// Entries are append-only; rows are only ever inserted.
type StatusEntryModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Task           string    `gorm:"type:varchar(200);not null"`
	AssignedTo     string    `gorm:"type:varchar(200);not null"`
	DeliveryDate   time.Time `gorm:"not null"`
	SequenceNumber int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusEntryModel) TableName() string {
	return "order_status_entries"
}

// ToDomain converts the persistence model to a domain StatusEntry.
func (m *StatusEntryModel) ToDomain() *order.StatusEntry {
	return &order.StatusEntry{
		Task:           m.Task,
		AssignedTo:     m.AssignedTo,
		DeliveryDate:   m.DeliveryDate,
		SequenceNumber: m.SequenceNumber,
		CreatedAt:      m.CreatedAt,
	}
}

// StatusEntryModelFromDomain creates a persistence model from a domain StatusEntry.
func StatusEntryModelFromDomain(orderID uuid.UUID, e *order.StatusEntry) *StatusEntryModel {
	return &StatusEntryModel{
		OrderID:        orderID,
		Task:           e.Task,
		AssignedTo:     e.AssignedTo,
		DeliveryDate:   e.DeliveryDate,
		SequenceNumber: e.SequenceNumber,
		CreatedAt:      e.CreatedAt,
	}
}

// StepModel is the persistence model for a production step.
// An empty status column marks a row still in the legacy shape.
type StepModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label       string          `gorm:"type:varchar(200);not null"`
	Checked     bool            `gorm:"not null;default:false"`
	VendorRef   string          `gorm:"type:varchar(200)"`
	VendorName  string          `gorm:"type:varchar(200)"`
	CostAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PlannedDate *time.Time
	Status      string `gorm:"type:varchar(20);not null;default:''"`
	IsPosted    bool   `gorm:"not null;default:false"`
	LedgerID    *uuid.UUID `gorm:"type:uuid"`
	PostedAt    *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StepModel) TableName() string {
	return "order_steps"
}

// ToDomain converts the persistence model to a domain Step.
func (m *StepModel) ToDomain() *order.Step {
	return &order.Step{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Label:       m.Label,
		Checked:     m.Checked,
		VendorRef:   m.VendorRef,
		VendorName:  m.VendorName,
		CostAmount:  m.CostAmount,
		PlannedDate: m.PlannedDate,
		Status:      order.StepStatus(m.Status),
		Posting: order.StepPosting{
			IsPosted: m.IsPosted,
			LedgerID: m.LedgerID,
			PostedAt: m.PostedAt,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// StepModelFromDomain creates a persistence model from a domain Step.
func StepModelFromDomain(s *order.Step) *StepModel {
	return &StepModel{
		ID:          s.ID,
		OrderID:     s.OrderID,
		Label:       s.Label,
		Checked:     s.Checked,
		VendorRef:   s.VendorRef,
		VendorName:  s.VendorName,
		CostAmount:  s.CostAmount,
		PlannedDate: s.PlannedDate,
		Status:      s.Status.String(),
		IsPosted:    s.Posting.IsPosted,
		LedgerID:    s.Posting.LedgerID,
		PostedAt:    s.Posting.PostedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ItemModel is the persistence model for a billable line item.
// An empty priority column marks a row still in the legacy shape.
type ItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Rate      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Priority  string          `gorm:"type:varchar(50);not null;default:''"`
	Remark    string          `gorm:"type:varchar(500)"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *ItemModel) ToDomain() *order.Item {
	return &order.Item{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		Rate:      m.Rate,
		Amount:    m.Amount,
		Priority:  m.Priority,
		Remark:    m.Remark,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ItemModelFromDomain creates a persistence model from a domain Item.
func ItemModelFromDomain(i *order.Item) *ItemModel {
	return &ItemModel{
		ID:        i.ID,
		OrderID:   i.OrderID,
		Name:      i.Name,
		Quantity:  i.Quantity,
		Rate:      i.Rate,
		Amount:    i.Amount,
		Priority:  i.Priority,
		Remark:    i.Remark,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
