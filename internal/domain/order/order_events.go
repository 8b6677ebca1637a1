package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is raised when a new order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	StepCount   int       `json:"step_count"`
	ItemCount   int       `json:"item_count"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OrderCreated", "Order", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		StepCount:       len(o.Steps),
		ItemCount:       len(o.Items),
	}
}

// OrderStatusAppendedEvent is raised when a status entry is appended
type OrderStatusAppendedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    int64     `json:"order_number"`
	Task           string    `json:"task"`
	AssignedTo     string    `json:"assigned_to"`
	SequenceNumber int       `json:"sequence_number"`
}

// NewOrderStatusAppendedEvent creates a new OrderStatusAppendedEvent
func NewOrderStatusAppendedEvent(o *Order, entry *StatusEntry) *OrderStatusAppendedEvent {
	return &OrderStatusAppendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OrderStatusAppended", "Order", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Task:            entry.Task,
		AssignedTo:      entry.AssignedTo,
		SequenceNumber:  entry.SequenceNumber,
	}
}

// StepVendorAssignedEvent is raised when vendor metadata is set on a step
type StepVendorAssignedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID       `json:"order_id"`
	StepID     uuid.UUID       `json:"step_id"`
	StepLabel  string          `json:"step_label"`
	VendorRef  string          `json:"vendor_ref"`
	CostAmount decimal.Decimal `json:"cost_amount"`
}

// NewStepVendorAssignedEvent creates a new StepVendorAssignedEvent
func NewStepVendorAssignedEvent(o *Order, step *Step) *StepVendorAssignedEvent {
	return &StepVendorAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StepVendorAssigned", "Order", o.ID),
		OrderID:         o.ID,
		StepID:          step.ID,
		StepLabel:       step.Label,
		VendorRef:       step.VendorRef,
		CostAmount:      step.CostAmount,
	}
}

// StepPostedEvent is raised when a step's vendor cost is posted to the ledger
type StepPostedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID       `json:"order_id"`
	StepID     uuid.UUID       `json:"step_id"`
	LedgerID   uuid.UUID       `json:"ledger_id"`
	CostAmount decimal.Decimal `json:"cost_amount"`
	PostedAt   time.Time       `json:"posted_at"`
}

// NewStepPostedEvent creates a new StepPostedEvent
func NewStepPostedEvent(o *Order, step *Step) *StepPostedEvent {
	var ledgerID uuid.UUID
	if step.Posting.LedgerID != nil {
		ledgerID = *step.Posting.LedgerID
	}
	postedAt := time.Now()
	if step.Posting.PostedAt != nil {
		postedAt = *step.Posting.PostedAt
	}
	return &StepPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StepPosted", "Order", o.ID),
		OrderID:         o.ID,
		StepID:          step.ID,
		LedgerID:        ledgerID,
		CostAmount:      step.CostAmount,
		PostedAt:        postedAt,
	}
}

// OrderBillPaidEvent is raised when the order bill is marked paid
type OrderBillPaidEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	PaidBy      string    `json:"paid_by"`
}

// NewOrderBillPaidEvent creates a new OrderBillPaidEvent
func NewOrderBillPaidEvent(o *Order) *OrderBillPaidEvent {
	return &OrderBillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OrderBillPaid", "Order", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		PaidBy:          o.PaidBy,
	}
}

// OrderMigratedEvent is raised when a legacy order is rewritten into the
// structured shape
type OrderMigratedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	ItemCount   int       `json:"item_count"`
	StepCount   int       `json:"step_count"`
}

// NewOrderMigratedEvent creates a new OrderMigratedEvent
func NewOrderMigratedEvent(o *Order) *OrderMigratedEvent {
	return &OrderMigratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("OrderMigrated", "Order", o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		ItemCount:       len(o.Items),
		StepCount:       len(o.Steps),
	}
}
