package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// StatusSeedRequest is a status payload for creation or append
type StatusSeedRequest struct {
	Task         string
	AssignedTo   string
	DeliveryDate *time.Time
}

// StepRequest is a production step supplied at order creation
type StepRequest struct {
	Label       string
	Checked     bool
	VendorRef   string
	VendorName  string
	CostAmount  decimal.Decimal
	PlannedDate *time.Time
}

// ItemRequest is a billable line item supplied at order creation
type ItemRequest struct {
	Name     string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
	Amount   decimal.Decimal
	Priority string
	Remark   string
}

// CreateOrderRequest carries the input for order creation
type CreateOrderRequest struct {
	CustomerID uuid.UUID
	Status     *StatusSeedRequest
	Steps      []StepRequest
	Items      []ItemRequest
}

// AssignVendorRequest carries the input for vendor assignment on a step
type AssignVendorRequest struct {
	VendorRef   string
	VendorName  string
	CostAmount  decimal.Decimal
	PlannedDate *time.Time
	CreatedBy   string
}

// MarkBillPaidRequest carries the input for settling an order bill
type MarkBillPaidRequest struct {
	PaidBy string
	// PaymentMode, when set, additionally posts a payment transaction
	// (debit the payment-mode account, credit sales) linked to the order.
	PaymentMode string
}

// PostingResult reports the outcome of a vendor assignment
type PostingResult struct {
	// Posted is true when this call created a new ledger transaction
	Posted bool
	// AlreadyPosted is true when the call was short-circuited by idempotence
	AlreadyPosted bool
	// LedgerID references the transaction backing the step's posting, if any
	LedgerID *uuid.UUID
}

// MigrateReport reports the outcome of a migration batch
type MigrateReport struct {
	MigratedCount int
	FailedCount   int
}

// StatusEntryResponse represents a status entry in responses
type StatusEntryResponse struct {
	Task           string    `json:"task"`
	AssignedTo     string    `json:"assigned_to"`
	DeliveryDate   time.Time `json:"delivery_date"`
	SequenceNumber int       `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// StepResponse represents a production step in responses
type StepResponse struct {
	ID          uuid.UUID       `json:"id"`
	Label       string          `json:"label"`
	Checked     bool            `json:"checked"`
	VendorRef   string          `json:"vendor_ref,omitempty"`
	VendorName  string          `json:"vendor_name,omitempty"`
	CostAmount  decimal.Decimal `json:"cost_amount"`
	PlannedDate *time.Time      `json:"planned_date,omitempty"`
	Status      string          `json:"status"`
	IsPosted    bool            `json:"is_posted"`
	LedgerID    *uuid.UUID      `json:"ledger_id,omitempty"`
	PostedAt    *time.Time      `json:"posted_at,omitempty"`
}

// ItemResponse represents a line item in responses
type ItemResponse struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Priority string          `json:"priority"`
	Remark   string          `json:"remark,omitempty"`
}

// OrderResponse represents an order in responses
type OrderResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrderNumber    int64                 `json:"order_number"`
	CustomerID     uuid.UUID             `json:"customer_id"`
	StatusHistory  []StatusEntryResponse `json:"status_history"`
	CurrentStatus  *StatusEntryResponse  `json:"current_status,omitempty"`
	Steps          []StepResponse        `json:"steps"`
	Items          []ItemResponse        `json:"items"`
	SaleSubtotal   decimal.Decimal       `json:"sale_subtotal"`
	StepsCostTotal decimal.Decimal       `json:"steps_cost_total"`
	BillStatus     string                `json:"bill_status"`
	PaidBy         string                `json:"paid_by,omitempty"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	PaidLedgerID   *uuid.UUID            `json:"paid_ledger_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Version        int                   `json:"version"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    int64                `json:"order_number"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	CurrentStatus  *StatusEntryResponse `json:"current_status,omitempty"`
	StepCount      int                  `json:"step_count"`
	ItemCount      int                  `json:"item_count"`
	SaleSubtotal   decimal.Decimal      `json:"sale_subtotal"`
	StepsCostTotal decimal.Decimal      `json:"steps_cost_total"`
	BillStatus     string               `json:"bill_status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	history := make([]StatusEntryResponse, len(o.StatusHistory))
	for i, e := range o.StatusHistory {
		history[i] = toStatusEntryResponse(e)
	}

	steps := make([]StepResponse, len(o.Steps))
	for i, s := range o.Steps {
		steps[i] = StepResponse{
			ID:          s.ID,
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
		}
	}

	items := make([]ItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = ItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Rate:     it.Rate,
			Amount:   it.Amount,
			Priority: it.Priority,
			Remark:   it.Remark,
		}
	}

	resp := OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerID:     o.CustomerID,
		StatusHistory:  history,
		Steps:          steps,
		Items:          items,
		SaleSubtotal:   o.SaleSubtotal,
		StepsCostTotal: o.StepsCostTotal,
		BillStatus:     o.BillStatus.String(),
		PaidBy:         o.PaidBy,
		PaidAt:         o.PaidAt,
		PaidLedgerID:   o.PaidLedgerID,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Version:        o.Version,
	}
	if len(history) > 0 {
		resp.CurrentStatus = &history[len(history)-1]
	}
	return resp
}

// ToOrderListItemResponses converts domain orders to list responses
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		resp := OrderListItemResponse{
			ID:             o.ID,
			OrderNumber:    o.OrderNumber,
			CustomerID:     o.CustomerID,
			StepCount:      o.StepCount(),
			ItemCount:      o.ItemCount(),
			SaleSubtotal:   o.SaleSubtotal,
			StepsCostTotal: o.StepsCostTotal,
			BillStatus:     o.BillStatus.String(),
			CreatedAt:      o.CreatedAt,
			UpdatedAt:      o.UpdatedAt,
		}
		if cur := o.CurrentStatus(); cur != nil {
			entry := toStatusEntryResponse(*cur)
			resp.CurrentStatus = &entry
		}
		responses[i] = resp
	}
	return responses
}

func toStatusEntryResponse(e order.StatusEntry) StatusEntryResponse {
	return StatusEntryResponse{
		Task:           e.Task,
		AssignedTo:     e.AssignedTo,
		DeliveryDate:   e.DeliveryDate,
		SequenceNumber: e.SequenceNumber,
		CreatedAt:      e.CreatedAt,
	}
}
