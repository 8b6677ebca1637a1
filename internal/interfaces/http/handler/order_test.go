package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/opsdesk/backend/internal/application/finance"
	fulfillmentapp "github.com/opsdesk/backend/internal/application/fulfillment"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOrderRepo is an in-memory order repository for handler tests
type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber int64) (*order.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]order.Order, error) {
	var out []order.Order
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, error) {
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) FindNeedingMigration(_ context.Context, _ int) ([]order.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) SaveWithLock(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) NextOrderNumber(_ context.Context) (int64, error) {
	var max int64
	for _, o := range r.orders {
		if o.OrderNumber > max {
			max = o.OrderNumber
		}
	}
	return max + 1, nil
}

func (r *fakeOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.orders)), nil
}

// fakeLedgerRepo is an in-memory ledger repository for handler tests
type fakeLedgerRepo struct {
	transactions map[uuid.UUID]*ledger.Transaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{transactions: make(map[uuid.UUID]*ledger.Transaction)}
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	if t, ok := r.transactions[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLedgerRepo) FindBySequenceID(_ context.Context, sequenceID int64) (*ledger.Transaction, error) {
	for _, t := range r.transactions {
		if t.SequenceID == sequenceID {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeLedgerRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, t := range r.transactions {
		if t.OrderID != nil && *t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) FindAll(_ context.Context, _ shared.Filter) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeLedgerRepo) Save(_ context.Context, t *ledger.Transaction) error {
	r.transactions[t.ID] = t
	return nil
}

func (r *fakeLedgerRepo) NextSequenceID(_ context.Context) (int64, error) {
	var max int64
	for _, t := range r.transactions {
		if t.SequenceID > max {
			max = t.SequenceID
		}
	}
	return max + 1, nil
}

func (r *fakeLedgerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.transactions)), nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*gin.Engine, *fakeOrderRepo, *fakeLedgerRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orderRepo := newFakeOrderRepo()
	ledgerRepo := newFakeLedgerRepo()
	scope := fulfillmentapp.NewNoOpTransactionScope(orderRepo, ledgerRepo)
	log := zap.NewNop()

	orderService := fulfillmentapp.NewOrderService(scope, orderRepo, nil, log)
	postingService := fulfillmentapp.NewPostingService(scope, nil, log)
	migrationService := fulfillmentapp.NewMigrationService(orderRepo, nil, log)
	ledgerService := financeapp.NewLedgerService(ledgerRepo, log)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewOrderHandler(orderService, postingService, migrationService).RegisterRoutes(api)
	NewLedgerHandler(ledgerService).RegisterRoutes(api)

	return engine, orderRepo, ledgerRepo
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "priya")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func createOrderPayload() map[string]any {
	return map[string]any{
		"customer_id": uuid.New().String(),
		"status": map[string]any{
			"task":        "Order Placed",
			"assigned_to": "Priya",
		},
		"steps": []map[string]any{
			{"label": "Stitching"},
		},
		"items": []map[string]any{
			{"name": "Curtains", "quantity": 4, "rate": 250},
		},
	}
}

func TestOrderHandler_Create(t *testing.T) {
	t.Run("creates an order and allocates number one", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())

		require.Equal(t, http.StatusCreated, w.Code)
		require.True(t, env.Success)

		var data struct {
			OrderNumber  int64  `json:"order_number"`
			BillStatus   string `json:"bill_status"`
			SaleSubtotal string `json:"sale_subtotal"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, int64(1), data.OrderNumber)
		assert.Equal(t, "UNPAID", data.BillStatus)
		assert.Equal(t, "1000", data.SaleSubtotal)
	})

	t.Run("rejects a missing status seed", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		payload := createOrderPayload()
		delete(payload, "status")
		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.False(t, env.Success)
	})

	t.Run("rejects a malformed customer id", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		payload := createOrderPayload()
		payload["customer_id"] = "not-a-uuid"
		w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/orders", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("resolves by order number", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		w, env := doJSON(t, engine, http.MethodGet, "/api/v1/orders/1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
	})

	t.Run("unknown order is a 404 with a normalized code", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		w, env := doJSON(t, engine, http.MethodGet, "/api/v1/orders/"+uuid.New().String(), nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
	})
}

func TestOrderHandler_AppendStatus(t *testing.T) {
	t.Run("appends with the next sequence number", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders/1/status", map[string]any{
			"task": "Cutting Started",
		})

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, env.Success)

		var data struct {
			CurrentStatus struct {
				Task           string `json:"task"`
				SequenceNumber int    `json:"sequence_number"`
			} `json:"current_status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "Cutting Started", data.CurrentStatus.Task)
		assert.Equal(t, 2, data.CurrentStatus.SequenceNumber)
	})

	t.Run("empty task is rejected", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())

		w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/orders/1/status", map[string]any{
			"task": "",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_AssignVendor(t *testing.T) {
	t.Run("posts the vendor cost exactly once", func(t *testing.T) {
		engine, orderRepo, ledgerRepo := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		var data struct {
			ID    uuid.UUID `json:"id"`
			Steps []struct {
				ID uuid.UUID `json:"id"`
			} `json:"steps"`
		}
		require.NoError(t, json.Unmarshal(created.Data, &data))
		require.Len(t, data.Steps, 1)

		path := fmt.Sprintf("/api/v1/orders/%s/steps/%s/assign-vendor", data.ID, data.Steps[0].ID)
		body := map[string]any{
			"vendor_ref":  "vendor-7",
			"vendor_name": "Stitch Works",
			"cost_amount": 350,
		}

		w, env := doJSON(t, engine, http.MethodPost, path, body)
		require.Equal(t, http.StatusOK, w.Code)

		var result PostingResultResponse
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.True(t, result.Posted)
		assert.False(t, result.AlreadyPosted)
		require.NotNil(t, result.LedgerID)

		tx := ledgerRepo.transactions[*result.LedgerID]
		require.NotNil(t, tx)
		assert.True(t, tx.IsBalanced())

		// Second call is idempotent and keeps the original ledger link
		w, env = doJSON(t, engine, http.MethodPost, path, body)
		require.Equal(t, http.StatusOK, w.Code)

		var repeat PostingResultResponse
		require.NoError(t, json.Unmarshal(env.Data, &repeat))
		assert.False(t, repeat.Posted)
		assert.True(t, repeat.AlreadyPosted)
		require.NotNil(t, repeat.LedgerID)
		assert.Equal(t, *result.LedgerID, *repeat.LedgerID)
		assert.Len(t, ledgerRepo.transactions, 1)

		stored := orderRepo.orders[data.ID]
		require.NotNil(t, stored)
		step := stored.FindStep(data.Steps[0].ID)
		require.NotNil(t, step)
		assert.True(t, step.Posting.IsPosted)
	})

	t.Run("unknown step is a 404", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		path := fmt.Sprintf("/api/v1/orders/1/steps/%s/assign-vendor", uuid.New())
		w, env := doJSON(t, engine, http.MethodPost, path, map[string]any{
			"vendor_ref":  "vendor-7",
			"cost_amount": 350,
		})

		require.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
	})

	t.Run("missing vendor ref is rejected by binding", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		var data struct {
			Steps []struct {
				ID uuid.UUID `json:"id"`
			} `json:"steps"`
		}
		require.NoError(t, json.Unmarshal(created.Data, &data))

		path := fmt.Sprintf("/api/v1/orders/1/steps/%s/assign-vendor", data.Steps[0].ID)
		w, _ := doJSON(t, engine, http.MethodPost, path, map[string]any{
			"cost_amount": 350,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_MarkPaid(t *testing.T) {
	t.Run("settles the bill and posts a payment transaction", func(t *testing.T) {
		engine, _, ledgerRepo := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders/1/bill/paid", map[string]any{
			"payment_mode": "cash",
		})

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, env.Success)

		var data struct {
			BillStatus string `json:"bill_status"`
			PaidBy     string `json:"paid_by"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "PAID", data.BillStatus)
		assert.Equal(t, "priya", data.PaidBy)
		assert.Len(t, ledgerRepo.transactions, 1)
	})

	t.Run("double settle is a 422", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		doJSON(t, engine, http.MethodPost, "/api/v1/orders/1/bill/paid", map[string]any{})

		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders/1/bill/paid", map[string]any{})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_INVALID_STATE", env.Error.Code)
	})
}

func TestOrderHandler_MigrateIDs(t *testing.T) {
	t.Run("empty id list is rejected by binding", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/orders/migrate/ids", map[string]any{
			"ids": []string{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing orders are skipped", func(t *testing.T) {
		engine, _, _ := newTestServer(t)

		w, env := doJSON(t, engine, http.MethodPost, "/api/v1/orders/migrate/ids", map[string]any{
			"ids": []string{uuid.New().String()},
		})

		require.Equal(t, http.StatusOK, w.Code)

		var report MigrateReportResponse
		require.NoError(t, json.Unmarshal(env.Data, &report))
		assert.Equal(t, 0, report.MigratedCount)
		assert.Equal(t, 0, report.FailedCount)
	})
}

func TestLedgerHandler_GetByOrder(t *testing.T) {
	t.Run("returns the transactions linked to an order", func(t *testing.T) {
		engine, _, _ := newTestServer(t)
		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/orders", createOrderPayload())
		require.True(t, created.Success)

		var data struct {
			ID    uuid.UUID `json:"id"`
			Steps []struct {
				ID uuid.UUID `json:"id"`
			} `json:"steps"`
		}
		require.NoError(t, json.Unmarshal(created.Data, &data))

		path := fmt.Sprintf("/api/v1/orders/%s/steps/%s/assign-vendor", data.ID, data.Steps[0].ID)
		doJSON(t, engine, http.MethodPost, path, map[string]any{
			"vendor_ref":  "vendor-7",
			"cost_amount": 350,
		})

		w, env := doJSON(t, engine, http.MethodGet, "/api/v1/ledger/orders/"+data.ID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)

		var transactions []struct {
			SequenceID  int64  `json:"sequence_id"`
			Description string `json:"description"`
			TotalDebit  struct {
				Amount   string `json:"amount"`
				Currency string `json:"currency"`
			} `json:"total_debit"`
			Entries []struct {
				AccountRef string `json:"account_ref"`
				Amount     struct {
					Amount   string `json:"amount"`
					Currency string `json:"currency"`
				} `json:"amount"`
			} `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &transactions))
		require.Len(t, transactions, 1)
		assert.Equal(t, int64(1), transactions[0].SequenceID)

		// monetary amounts come back currency-tagged
		assert.Equal(t, "350", transactions[0].TotalDebit.Amount)
		assert.Equal(t, "INR", transactions[0].TotalDebit.Currency)
		require.Len(t, transactions[0].Entries, 2)
		assert.Equal(t, "350", transactions[0].Entries[0].Amount.Amount)
		assert.Equal(t, "INR", transactions[0].Entries[0].Amount.Currency)
	})
}
