package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"}, nil, nil)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("seeds the history with sequence number one", func(t *testing.T) {
		o := newOrder(t)

		require.Len(t, o.StatusHistory, 1)
		assert.Equal(t, 1, o.StatusHistory[0].SequenceNumber)
		assert.Equal(t, "Order Placed", o.StatusHistory[0].Task)
		assert.Equal(t, DefaultAssignee, o.StatusHistory[0].AssignedTo)
		assert.False(t, o.StatusHistory[0].DeliveryDate.IsZero())
		assert.Equal(t, BillStatusUnpaid, o.BillStatus)
	})

	t.Run("requires a status task", func(t *testing.T) {
		_, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "  "}, nil, nil)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
	})

	t.Run("requires a customer", func(t *testing.T) {
		_, err := NewOrder(41, uuid.Nil, StatusSeedInput{Task: "Order Placed"}, nil, nil)
		assert.Error(t, err)
	})

	t.Run("normalizes steps and items", func(t *testing.T) {
		o, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"},
			[]StepInput{
				{Label: " Stitching "},
				{Label: ""},
			},
			[]ItemInput{
				{Name: "Widget", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(50)},
				{Name: "  "},
			})
		require.NoError(t, err)

		require.Len(t, o.Steps, 1)
		assert.Equal(t, "Stitching", o.Steps[0].Label)
		assert.Equal(t, StepStatusPending, o.Steps[0].Status)
		assert.False(t, o.Steps[0].Posting.IsPosted)

		require.Len(t, o.Items, 1)
		assert.True(t, o.Items[0].Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, DefaultItemPriority, o.Items[0].Priority)
		assert.True(t, o.SaleSubtotal.Equal(decimal.NewFromInt(100)))
	})

	t.Run("rejects a negative step cost", func(t *testing.T) {
		_, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"},
			[]StepInput{{Label: "Stitching", CostAmount: decimal.NewFromInt(-1)}}, nil)
		assert.Error(t, err)
	})
}

func TestOrder_AppendStatus(t *testing.T) {
	t.Run("sequence numbers are strictly increasing", func(t *testing.T) {
		o := newOrder(t)

		for i, task := range []string{"Cutting", "Stitching", "Dispatch"} {
			entry, err := o.AppendStatus(task, "", nil)
			require.NoError(t, err)
			assert.Equal(t, i+2, entry.SequenceNumber)
		}
		assert.Len(t, o.StatusHistory, 4)
	})

	t.Run("sequence continues from the maximum, not the length", func(t *testing.T) {
		o := newOrder(t)
		// history with a gap, as left behind by old deletions
		o.StatusHistory = []StatusEntry{
			{Task: "Order Placed", SequenceNumber: 1},
			{Task: "Cutting", SequenceNumber: 5},
		}

		entry, err := o.AppendStatus("Dispatch", "", nil)

		require.NoError(t, err)
		assert.Equal(t, 6, entry.SequenceNumber)
	})

	t.Run("defaults carry over from the previous entry", func(t *testing.T) {
		delivery := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		o, err := NewOrder(41, uuid.New(), StatusSeedInput{
			Task:         "Order Placed",
			AssignedTo:   "Priya",
			DeliveryDate: &delivery,
		}, nil, nil)
		require.NoError(t, err)

		entry, err := o.AppendStatus("Cutting", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "Priya", entry.AssignedTo)
		assert.True(t, delivery.Equal(entry.DeliveryDate))
	})

	t.Run("explicit values win over defaults", func(t *testing.T) {
		o := newOrder(t)
		delivery := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

		entry, err := o.AppendStatus("Cutting", "Arjun", &delivery)

		require.NoError(t, err)
		assert.Equal(t, "Arjun", entry.AssignedTo)
		assert.True(t, delivery.Equal(entry.DeliveryDate))
	})

	t.Run("rejects an empty task", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.AppendStatus("   ", "", nil)

		assert.Error(t, err)
		assert.Len(t, o.StatusHistory, 1)
	})
}

func TestOrder_StepPosting(t *testing.T) {
	withStep := func(t *testing.T) (*Order, uuid.UUID) {
		t.Helper()
		o, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"},
			[]StepInput{{Label: "Stitching"}}, nil)
		require.NoError(t, err)
		return o, o.Steps[0].ID
	}

	t.Run("posting flips the flag exactly once", func(t *testing.T) {
		o, stepID := withStep(t)
		ledgerID := uuid.New()
		require.NoError(t, o.AssignVendorToStep(stepID, "vendor-7", "Acme", decimal.NewFromInt(300), nil))

		require.NoError(t, o.MarkStepPosted(stepID, ledgerID))

		step := o.FindStep(stepID)
		assert.True(t, step.Posting.IsPosted)
		assert.Equal(t, ledgerID, *step.Posting.LedgerID)
		assert.Equal(t, StepStatusPosted, step.Status)
		assert.True(t, step.Checked)

		err := o.MarkStepPosted(stepID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrAlreadyPosted)
		assert.Equal(t, ledgerID, *step.Posting.LedgerID)
	})

	t.Run("posting requires an assigned vendor", func(t *testing.T) {
		o, stepID := withStep(t)

		err := o.MarkStepPosted(stepID, uuid.New())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_VENDOR", domainErr.Code)
	})

	t.Run("vendor metadata update keeps the posting state", func(t *testing.T) {
		o, stepID := withStep(t)
		ledgerID := uuid.New()
		require.NoError(t, o.AssignVendorToStep(stepID, "vendor-7", "Acme", decimal.NewFromInt(300), nil))
		require.NoError(t, o.MarkStepPosted(stepID, ledgerID))

		require.NoError(t, o.AssignVendorToStep(stepID, "vendor-9", "Other", decimal.NewFromInt(500), nil))

		step := o.FindStep(stepID)
		assert.Equal(t, "vendor-9", step.VendorRef)
		assert.True(t, step.Posting.IsPosted)
		assert.Equal(t, ledgerID, *step.Posting.LedgerID)
		assert.True(t, o.StepsCostTotal.Equal(decimal.NewFromInt(500)))
	})

	t.Run("done requires a vendor and refuses posted steps", func(t *testing.T) {
		o, stepID := withStep(t)

		err := o.MarkStepDone(stepID)
		assert.Error(t, err)

		require.NoError(t, o.AssignVendorToStep(stepID, "vendor-7", "", decimal.Zero, nil))
		require.NoError(t, o.MarkStepDone(stepID))
		assert.Equal(t, StepStatusDone, o.FindStep(stepID).Status)

		require.NoError(t, o.MarkStepPosted(stepID, uuid.New()))
		assert.ErrorIs(t, o.MarkStepDone(stepID), shared.ErrAlreadyPosted)
	})

	t.Run("unknown step id", func(t *testing.T) {
		o, _ := withStep(t)

		err := o.AssignVendorToStep(uuid.New(), "vendor-7", "", decimal.NewFromInt(10), nil)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "STEP_NOT_FOUND", domainErr.Code)
	})
}

func TestOrder_MigrateLegacyShape(t *testing.T) {
	t.Run("structured order is untouched", func(t *testing.T) {
		o, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"},
			[]StepInput{{Label: "Stitching"}},
			[]ItemInput{{Name: "Widget", Amount: decimal.NewFromInt(10)}})
		require.NoError(t, err)

		assert.False(t, o.NeedsMigration())
		assert.False(t, o.MigrateLegacyShape())
	})

	t.Run("legacy steps get a status from the checked flag", func(t *testing.T) {
		o := newOrder(t)
		o.Steps = []Step{
			{ID: uuid.New(), OrderID: o.ID, Label: "Stitching", Checked: true},
			{ID: uuid.New(), OrderID: o.ID, Label: "Packing"},
		}

		require.True(t, o.NeedsMigration())
		require.True(t, o.MigrateLegacyShape())

		assert.Equal(t, StepStatusDone, o.Steps[0].Status)
		assert.Equal(t, StepStatusPending, o.Steps[1].Status)
		assert.False(t, o.Steps[0].Posting.IsPosted)
	})

	t.Run("flat fields become one synthetic item", func(t *testing.T) {
		o := newOrder(t)
		o.Legacy = LegacyFields{
			Quantity: decimal.NewFromInt(4),
			Rate:     decimal.NewFromInt(250),
			Remark:   "urgent",
		}

		require.True(t, o.MigrateLegacyShape())

		require.Len(t, o.Items, 1)
		item := o.Items[0]
		assert.Equal(t, LegacyItemName, item.Name)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(4)))
		assert.True(t, item.Rate.Equal(decimal.NewFromInt(250)))
		assert.True(t, item.Amount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, DefaultItemPriority, item.Priority)
		assert.Equal(t, "urgent", item.Remark)
		assert.True(t, o.Legacy.IsZero())
		assert.True(t, o.SaleSubtotal.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("amount wins when rate and amount disagree", func(t *testing.T) {
		o := newOrder(t)
		o.Legacy = LegacyFields{
			Amount:   decimal.NewFromInt(900),
			Quantity: decimal.NewFromInt(4),
			Rate:     decimal.NewFromInt(250),
		}

		require.True(t, o.MigrateLegacyShape())

		item := o.Items[0]
		assert.True(t, item.Amount.Equal(decimal.NewFromInt(900)))
		assert.True(t, item.Rate.Equal(decimal.NewFromInt(250)))
	})

	t.Run("amount only derives the rate", func(t *testing.T) {
		o := newOrder(t)
		o.Legacy = LegacyFields{Amount: decimal.NewFromInt(500)}

		require.True(t, o.MigrateLegacyShape())

		item := o.Items[0]
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(1)))
		assert.True(t, item.Rate.Equal(decimal.NewFromInt(500)))
		assert.True(t, item.Amount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("migration is idempotent", func(t *testing.T) {
		o := newOrder(t)
		o.Legacy = LegacyFields{Amount: decimal.NewFromInt(500)}
		o.Steps = []Step{{ID: uuid.New(), OrderID: o.ID, Label: "Stitching", Checked: true}}

		require.True(t, o.MigrateLegacyShape())
		itemID := o.Items[0].ID
		stepStatus := o.Steps[0].Status

		assert.False(t, o.MigrateLegacyShape())
		assert.Len(t, o.Items, 1)
		assert.Equal(t, itemID, o.Items[0].ID)
		assert.Equal(t, stepStatus, o.Steps[0].Status)
	})

	t.Run("legacy items get the default priority", func(t *testing.T) {
		o := newOrder(t)
		o.Items = []Item{{
			ID:       uuid.New(),
			OrderID:  o.ID,
			Name:     "Widget",
			Quantity: decimal.NewFromInt(2),
			Rate:     decimal.NewFromInt(30),
		}}

		require.True(t, o.MigrateLegacyShape())

		assert.Equal(t, DefaultItemPriority, o.Items[0].Priority)
		assert.True(t, o.Items[0].Amount.Equal(decimal.NewFromInt(60)))
	})
}

func TestOrder_MarkBillPaid(t *testing.T) {
	t.Run("settles once with metadata", func(t *testing.T) {
		o := newOrder(t)
		ledgerID := uuid.New()

		require.NoError(t, o.MarkBillPaid("admin", &ledgerID))

		assert.True(t, o.IsPaid())
		assert.Equal(t, "admin", o.PaidBy)
		require.NotNil(t, o.PaidAt)
		assert.Equal(t, ledgerID, *o.PaidLedgerID)

		assert.ErrorIs(t, o.MarkBillPaid("admin", nil), shared.ErrInvalidState)
	})

	t.Run("requires an identity", func(t *testing.T) {
		o := newOrder(t)
		assert.Error(t, o.MarkBillPaid("  ", nil))
	})
}

func TestOrder_Totals(t *testing.T) {
	o, err := NewOrder(41, uuid.New(), StatusSeedInput{Task: "Order Placed"},
		[]StepInput{
			{Label: "Stitching", CostAmount: decimal.NewFromInt(120)},
			{Label: "Packing", CostAmount: decimal.NewFromInt(30)},
		},
		[]ItemInput{
			{Name: "Widget", Amount: decimal.NewFromInt(500)},
			{Name: "Gadget", Quantity: decimal.NewFromInt(3), Rate: decimal.NewFromInt(100)},
		})
	require.NoError(t, err)

	assert.True(t, o.SaleSubtotal.Equal(decimal.NewFromInt(800)))
	assert.True(t, o.StepsCostTotal.Equal(decimal.NewFromInt(150)))

	require.NoError(t, o.AssignVendorToStep(o.Steps[0].ID, "vendor-7", "", decimal.NewFromInt(200), nil))
	assert.True(t, o.StepsCostTotal.Equal(decimal.NewFromInt(230)))
}
