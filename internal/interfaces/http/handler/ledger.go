package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/opsdesk/backend/internal/application/finance"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/interfaces/http/dto"
)

// LedgerHandler handles read-only ledger API endpoints. The ledger is
// append-only and written exclusively by the fulfillment workflow.
type LedgerHandler struct {
	BaseHandler
	ledgerService *financeapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *financeapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// List handles GET /ledger/transactions
func (h *LedgerHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Search:   listReq.Search,
		Filters:  make(map[string]interface{}),
	}

	result, err := h.ledgerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get handles GET /ledger/transactions/:id
func (h *LedgerHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	resp, err := h.ledgerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByOrder handles GET /ledger/orders/:orderId
func (h *LedgerHandler) GetByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.ledgerService.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers ledger routes on the given router group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.GET("/transactions", h.List)
		ledger.GET("/transactions/:id", h.Get)
		ledger.GET("/orders/:orderId", h.GetByOrder)
	}
}
