package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultAssignee is used when a status entry has no assignee and no
// previous entry to inherit one from.
const DefaultAssignee = "Unassigned"

// LegacyItemName is the placeholder name given to the synthetic line item
// created when a flat-field order is migrated to the structured shape.
const LegacyItemName = "Item 1"

// DefaultItemPriority is assigned to items that predate the priority field.
const DefaultItemPriority = "Normal"

// BillStatus represents the billing state of an order
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "UNPAID"
	BillStatusPaid   BillStatus = "PAID"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	return s == BillStatusUnpaid || s == BillStatusPaid
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// StepStatus represents the state of a production step
type StepStatus string

const (
	// StepStatusPending is the initial state of every step
	StepStatusPending StepStatus = "PENDING"
	// StepStatusDone marks a step finished without a ledger posting (zero-cost outsourcing)
	StepStatusDone StepStatus = "DONE"
	// StepStatusPosted marks a step whose vendor cost has been posted to the ledger
	StepStatusPosted StepStatus = "POSTED"
	// StepStatusPaid marks a posted step whose vendor has been paid out
	StepStatusPaid StepStatus = "PAID"
)

// IsValid checks if the status is a valid StepStatus
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusPending, StepStatusDone, StepStatusPosted, StepStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	return string(s)
}

// StatusEntry is one entry in an order's append-only status history.
// Sequence numbers are assigned at append time and never change.
type StatusEntry struct {
	Task           string
	AssignedTo     string
	DeliveryDate   time.Time
	SequenceNumber int
	CreatedAt      time.Time
}

// StepPosting records whether a step's vendor cost has been posted to the
// ledger. Once IsPosted is true it must never flip back, and LedgerID points
// at the single transaction created for this step.
type StepPosting struct {
	IsPosted bool
	LedgerID *uuid.UUID
	PostedAt *time.Time
}

// Step is one stage of order fulfillment, optionally outsourced to a vendor.
// Steps are addressed by their stable ID, never by position.
type Step struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Label       string
	Checked     bool
	VendorRef   string
	VendorName  string
	CostAmount  decimal.Decimal
	PlannedDate *time.Time
	Status      StepStatus
	Posting     StepPosting
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLegacyShape reports whether the step predates the structured schema
// (stored without a status, and therefore without posting state).
func (s *Step) IsLegacyShape() bool {
	return s.Status == ""
}

// Item is a billable line item on an order
type Item struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Name      string
	Quantity  decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Priority  string
	Remark    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLegacyShape reports whether the item predates the priority/remark fields.
func (i *Item) IsLegacyShape() bool {
	return i.Priority == ""
}

// LegacyFields holds the deprecated flat order fields from the pre-structured
// schema. They are read during migration and cleared afterwards.
type LegacyFields struct {
	Amount   decimal.Decimal
	Quantity decimal.Decimal
	Rate     decimal.Decimal
	Remark   string
	Priority string
}

// IsZero reports whether no legacy data is present
func (l LegacyFields) IsZero() bool {
	return l.Amount.IsZero() && l.Quantity.IsZero() && l.Rate.IsZero() &&
		l.Remark == "" && l.Priority == ""
}

// StatusSeedInput is the seed status supplied at order creation
type StatusSeedInput struct {
	Task         string
	AssignedTo   string
	DeliveryDate *time.Time
}

// StepInput is a step supplied at order creation
type StepInput struct {
	Label       string
	Checked     bool
	VendorRef   string
	VendorName  string
	CostAmount  decimal.Decimal
	PlannedDate *time.Time
}

// ItemInput is a line item supplied at order creation
type ItemInput struct {
	Name     string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
	Amount   decimal.Decimal
	Priority string
	Remark   string
}

// Order is the aggregate root for the fulfillment workflow.
// It owns its status history, production steps and line items by composition;
// the cached totals are recomputed on every mutation and never hand-edited.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber    int64
	CustomerID     uuid.UUID
	StatusHistory  []StatusEntry
	Steps          []Step
	Items          []Item
	SaleSubtotal   decimal.Decimal
	StepsCostTotal decimal.Decimal
	BillStatus     BillStatus
	PaidBy         string
	PaidAt         *time.Time
	PaidLedgerID   *uuid.UUID
	Legacy         LegacyFields
}

// NewOrder creates a new order with a seed status entry and normalized
// steps/items. Steps without a label and items without a name are dropped
// silently (documented lossy normalization).
func NewOrder(orderNumber int64, customerID uuid.UUID, seed StatusSeedInput, steps []StepInput, items []ItemInput) (*Order, error) {
	if orderNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must be positive")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer reference cannot be empty")
	}

	task := strings.TrimSpace(seed.Task)
	if task == "" {
		return nil, shared.NewDomainError("INVALID_STATUS", "Status task is required")
	}

	now := time.Now()
	assignedTo := strings.TrimSpace(seed.AssignedTo)
	if assignedTo == "" {
		assignedTo = DefaultAssignee
	}
	deliveryDate := now
	if seed.DeliveryDate != nil {
		deliveryDate = *seed.DeliveryDate
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		StatusHistory: []StatusEntry{{
			Task:           task,
			AssignedTo:     assignedTo,
			DeliveryDate:   deliveryDate,
			SequenceNumber: 1,
			CreatedAt:      now,
		}},
		Steps:      make([]Step, 0, len(steps)),
		Items:      make([]Item, 0, len(items)),
		BillStatus: BillStatusUnpaid,
	}

	for _, in := range steps {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			continue
		}
		if in.CostAmount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COST", "Step cost cannot be negative")
		}
		o.Steps = append(o.Steps, Step{
			ID:          uuid.New(),
			OrderID:     o.ID,
			Label:       label,
			Checked:     in.Checked,
			VendorRef:   strings.TrimSpace(in.VendorRef),
			VendorName:  strings.TrimSpace(in.VendorName),
			CostAmount:  in.CostAmount,
			PlannedDate: in.PlannedDate,
			Status:      StepStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	for _, in := range items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		o.Items = append(o.Items, newItem(o.ID, name, in, now))
	}

	o.recalculateTotals()
	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// newItem builds a normalized item; amount defaults to quantity*rate when
// not supplied.
func newItem(orderID uuid.UUID, name string, in ItemInput, now time.Time) Item {
	amount := in.Amount
	if amount.IsZero() {
		amount = in.Quantity.Mul(in.Rate)
	}
	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = DefaultItemPriority
	}
	return Item{
		ID:        uuid.New(),
		OrderID:   orderID,
		Name:      name,
		Quantity:  in.Quantity,
		Rate:      in.Rate,
		Amount:    amount,
		Priority:  priority,
		Remark:    in.Remark,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentStatus returns the latest status entry, or nil for an empty history
func (o *Order) CurrentStatus() *StatusEntry {
	if len(o.StatusHistory) == 0 {
		return nil
	}
	return &o.StatusHistory[len(o.StatusHistory)-1]
}

// maxSequenceNumber returns the highest sequence number in the stored
// history, 0 when the history is empty.
func (o *Order) maxSequenceNumber() int {
	max := 0
	for _, e := range o.StatusHistory {
		if e.SequenceNumber > max {
			max = e.SequenceNumber
		}
	}
	return max
}

// AppendStatus appends exactly one entry to the status history.
// The sequence number is always computed from the stored history, never
// taken from the caller. AssignedTo and DeliveryDate default to the previous
// entry's values when omitted.
func (o *Order) AppendStatus(task, assignedTo string, deliveryDate *time.Time) (*StatusEntry, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, shared.NewDomainError("INVALID_STATUS", "Status task is required")
	}

	now := time.Now()
	prev := o.CurrentStatus()

	assignedTo = strings.TrimSpace(assignedTo)
	if assignedTo == "" {
		if prev != nil && prev.AssignedTo != "" {
			assignedTo = prev.AssignedTo
		} else {
			assignedTo = DefaultAssignee
		}
	}

	delivery := now
	if deliveryDate != nil {
		delivery = *deliveryDate
	} else if prev != nil {
		delivery = prev.DeliveryDate
	}

	entry := StatusEntry{
		Task:           task,
		AssignedTo:     assignedTo,
		DeliveryDate:   delivery,
		SequenceNumber: o.maxSequenceNumber() + 1,
		CreatedAt:      now,
	}
	o.StatusHistory = append(o.StatusHistory, entry)
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderStatusAppendedEvent(o, &entry))

	return &o.StatusHistory[len(o.StatusHistory)-1], nil
}

// FindStep returns the step with the given ID, or nil if absent
func (o *Order) FindStep(stepID uuid.UUID) *Step {
	for idx := range o.Steps {
		if o.Steps[idx].ID == stepID {
			return &o.Steps[idx]
		}
	}
	return nil
}

// AssignVendorToStep updates the vendor metadata on a step. It does not touch
// the posting state; posting transitions go through MarkStepDone/MarkStepPosted.
func (o *Order) AssignVendorToStep(stepID uuid.UUID, vendorRef, vendorName string, costAmount decimal.Decimal, plannedDate *time.Time) error {
	vendorRef = strings.TrimSpace(vendorRef)
	if vendorRef == "" {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor reference is required")
	}
	if costAmount.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Step cost cannot be negative")
	}

	step := o.FindStep(stepID)
	if step == nil {
		return shared.NewDomainError("STEP_NOT_FOUND", "Order step not found")
	}

	now := time.Now()
	step.VendorRef = vendorRef
	step.VendorName = strings.TrimSpace(vendorName)
	step.CostAmount = costAmount
	if plannedDate != nil {
		step.PlannedDate = plannedDate
	}
	step.UpdatedAt = now
	o.UpdatedAt = now

	o.recalculateTotals()
	o.AddDomainEvent(NewStepVendorAssignedEvent(o, step))

	return nil
}

// MarkStepDone finishes a step without a ledger posting (zero-cost
// outsourcing). The vendor must be assigned before a step leaves PENDING.
func (o *Order) MarkStepDone(stepID uuid.UUID) error {
	step := o.FindStep(stepID)
	if step == nil {
		return shared.NewDomainError("STEP_NOT_FOUND", "Order step not found")
	}
	if step.VendorRef == "" {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor must be assigned before the step can progress")
	}
	if step.Posting.IsPosted {
		return shared.ErrAlreadyPosted
	}

	now := time.Now()
	step.Status = StepStatusDone
	step.Checked = true
	step.UpdatedAt = now
	o.UpdatedAt = now

	return nil
}

// MarkStepPosted records that a ledger transaction has been created for the
// step's vendor cost. The posting flag may transition false to true exactly
// once; a second attempt fails with ErrAlreadyPosted.
func (o *Order) MarkStepPosted(stepID, ledgerID uuid.UUID) error {
	step := o.FindStep(stepID)
	if step == nil {
		return shared.NewDomainError("STEP_NOT_FOUND", "Order step not found")
	}
	if step.VendorRef == "" {
		return shared.NewDomainError("INVALID_VENDOR", "Vendor must be assigned before the step can progress")
	}
	if step.Posting.IsPosted {
		return shared.ErrAlreadyPosted
	}
	if ledgerID == uuid.Nil {
		return shared.NewDomainError("INVALID_LEDGER_REF", "Ledger reference cannot be empty")
	}

	now := time.Now()
	step.Posting = StepPosting{
		IsPosted: true,
		LedgerID: &ledgerID,
		PostedAt: &now,
	}
	step.Status = StepStatusPosted
	step.Checked = true
	step.UpdatedAt = now
	o.UpdatedAt = now

	o.AddDomainEvent(NewStepPostedEvent(o, step))

	return nil
}

// MarkBillPaid toggles the order to PAID with paid metadata and an optional
// link to the payment's ledger transaction.
func (o *Order) MarkBillPaid(paidBy string, ledgerID *uuid.UUID) error {
	if o.BillStatus == BillStatusPaid {
		return shared.ErrInvalidState
	}
	paidBy = strings.TrimSpace(paidBy)
	if paidBy == "" {
		return shared.NewDomainError("INVALID_INPUT", "Paid-by identity is required")
	}

	now := time.Now()
	o.BillStatus = BillStatusPaid
	o.PaidBy = paidBy
	o.PaidAt = &now
	o.PaidLedgerID = ledgerID
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderBillPaidEvent(o))

	return nil
}

// NeedsMigration reports whether the order is still (partly) in the legacy
// flat-field shape: a step stored without status/posting, an item stored
// without a priority, or flat fields present with no structured items.
func (o *Order) NeedsMigration() bool {
	for idx := range o.Steps {
		if o.Steps[idx].IsLegacyShape() {
			return true
		}
	}
	for idx := range o.Items {
		if o.Items[idx].IsLegacyShape() {
			return true
		}
	}
	if len(o.Items) == 0 && !o.Legacy.IsZero() {
		return true
	}
	return false
}

// MigrateLegacyShape rewrites the order into the structured shape.
// The transformation is idempotent: when NeedsMigration is false it returns
// false and changes nothing. Deprecated flat fields are cleared after a
// successful conversion so the order is unambiguously in the new shape.
func (o *Order) MigrateLegacyShape() bool {
	if !o.NeedsMigration() {
		return false
	}

	now := time.Now()

	for idx := range o.Steps {
		step := &o.Steps[idx]
		if !step.IsLegacyShape() {
			continue
		}
		if step.Checked {
			step.Status = StepStatusDone
		} else {
			step.Status = StepStatusPending
		}
		step.Posting = StepPosting{}
		step.UpdatedAt = now
	}

	for idx := range o.Items {
		item := &o.Items[idx]
		if !item.IsLegacyShape() {
			continue
		}
		item.Priority = DefaultItemPriority
		if item.Amount.IsZero() {
			item.Amount = item.Quantity.Mul(item.Rate)
		}
		item.UpdatedAt = now
	}

	if len(o.Items) == 0 && !o.Legacy.IsZero() {
		o.Items = append(o.Items, o.buildSyntheticItem(now))
	}

	o.Legacy = LegacyFields{}
	o.recalculateTotals()
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderMigratedEvent(o))

	return true
}

// buildSyntheticItem converts the flat fields into exactly one line item,
// reconciling the amount from whichever of amount / rate*quantity is present.
func (o *Order) buildSyntheticItem(now time.Time) Item {
	quantity := o.Legacy.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	amount := o.Legacy.Amount
	if amount.IsZero() {
		amount = quantity.Mul(o.Legacy.Rate)
	}

	rate := o.Legacy.Rate
	if rate.IsZero() && !quantity.IsZero() {
		rate = amount.Div(quantity)
	}

	priority := o.Legacy.Priority
	if priority == "" {
		priority = DefaultItemPriority
	}

	return Item{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Name:      LegacyItemName,
		Quantity:  quantity,
		Rate:      rate,
		Amount:    amount,
		Priority:  priority,
		Remark:    o.Legacy.Remark,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// recalculateTotals recomputes the cached totals from the owned collections
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	o.SaleSubtotal = subtotal

	cost := decimal.Zero
	for _, step := range o.Steps {
		cost = cost.Add(step.CostAmount)
	}
	o.StepsCostTotal = cost
}

// StepCount returns the number of steps on the order
func (o *Order) StepCount() int {
	return len(o.Steps)
}

// ItemCount returns the number of line items on the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// IsPaid returns true if the order bill has been settled
func (o *Order) IsPaid() bool {
	return o.BillStatus == BillStatusPaid
}
