package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	fulfillmentapp "github.com/opsdesk/backend/internal/application/fulfillment"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order fulfillment API endpoints
type OrderHandler struct {
	BaseHandler
	orderService     *fulfillmentapp.OrderService
	postingService   *fulfillmentapp.PostingService
	migrationService *fulfillmentapp.MigrationService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	orderService *fulfillmentapp.OrderService,
	postingService *fulfillmentapp.PostingService,
	migrationService *fulfillmentapp.MigrationService,
) *OrderHandler {
	return &OrderHandler{
		orderService:     orderService,
		postingService:   postingService,
		migrationService: migrationService,
	}
}

// StatusInput represents a status entry in requests
type StatusInput struct {
	Task         string     `json:"task" binding:"required,min=1,max=200"`
	AssignedTo   string     `json:"assigned_to" binding:"max=100"`
	DeliveryDate *time.Time `json:"delivery_date"`
}

// StepInput represents a production step in the create request
type StepInput struct {
	Label       string     `json:"label" binding:"required,min=1,max=200"`
	Checked     bool       `json:"checked"`
	VendorRef   string     `json:"vendor_ref" binding:"max=100"`
	VendorName  string     `json:"vendor_name" binding:"max=200"`
	CostAmount  float64    `json:"cost_amount" binding:"gte=0"`
	PlannedDate *time.Time `json:"planned_date"`
}

// ItemInput represents a billable line item in the create request
type ItemInput struct {
	Name     string  `json:"name" binding:"required,min=1,max=200"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Rate     float64 `json:"rate" binding:"gte=0"`
	Amount   float64 `json:"amount" binding:"gte=0"`
	Priority string  `json:"priority" binding:"max=50"`
	Remark   string  `json:"remark" binding:"max=500"`
}

// CreateOrderRequest represents a request to create a new order
type CreateOrderRequest struct {
	CustomerID string       `json:"customer_id" binding:"required,uuid"`
	Status     *StatusInput `json:"status" binding:"required"`
	Steps      []StepInput  `json:"steps" binding:"dive"`
	Items      []ItemInput  `json:"items" binding:"dive"`
}

// AssignVendorRequest represents a request to assign a vendor to a step
type AssignVendorRequest struct {
	VendorRef   string     `json:"vendor_ref" binding:"required,min=1,max=100"`
	VendorName  string     `json:"vendor_name" binding:"max=200"`
	CostAmount  float64    `json:"cost_amount" binding:"gte=0"`
	PlannedDate *time.Time `json:"planned_date"`
}

// MarkPaidRequest represents a request to settle an order bill
type MarkPaidRequest struct {
	PaymentMode string `json:"payment_mode" binding:"max=50"`
}

// MigrateIDsRequest represents a request to migrate specific orders
type MigrateIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// PostingResultResponse reports the outcome of a vendor assignment
type PostingResultResponse struct {
	Posted        bool       `json:"posted"`
	AlreadyPosted bool       `json:"already_posted"`
	LedgerID      *uuid.UUID `json:"ledger_id,omitempty"`
}

// MigrateReportResponse reports the outcome of a migration run
type MigrateReportResponse struct {
	MigratedCount int `json:"migrated_count"`
	FailedCount   int `json:"failed_count"`
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	appReq := fulfillmentapp.CreateOrderRequest{
		CustomerID: customerID,
		Status:     toStatusSeed(req.Status),
	}
	for _, s := range req.Steps {
		appReq.Steps = append(appReq.Steps, fulfillmentapp.StepRequest{
			Label:       s.Label,
			Checked:     s.Checked,
			VendorRef:   s.VendorRef,
			VendorName:  s.VendorName,
			CostAmount:  decimal.NewFromFloat(s.CostAmount),
			PlannedDate: s.PlannedDate,
		})
	}
	for _, it := range req.Items {
		appReq.Items = append(appReq.Items, fulfillmentapp.ItemRequest{
			Name:     it.Name,
			Quantity: decimal.NewFromFloat(it.Quantity),
			Rate:     decimal.NewFromFloat(it.Rate),
			Amount:   decimal.NewFromFloat(it.Amount),
			Priority: it.Priority,
			Remark:   it.Remark,
		})
	}

	resp, err := h.orderService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get handles GET /orders/:id where :id is a UUID or an order number
func (h *OrderHandler) Get(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.GetByIdentifier(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
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
	if billStatus := c.Query("bill_status"); billStatus != "" {
		filter.Filters["bill_status"] = billStatus
	}

	result, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// AppendStatus handles POST /orders/:id/status
func (h *OrderHandler) AppendStatus(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req StatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.AppendStatus(c.Request.Context(), uri.ID, *toStatusSeed(&req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssignVendor handles POST /orders/:id/steps/:stepId/assign-vendor
func (h *OrderHandler) AssignVendor(c *gin.Context) {
	orderID := c.Param("id")
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		h.BadRequest(c, "Invalid step ID format")
		return
	}

	var req AssignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.postingService.AssignVendorAndPost(c.Request.Context(), orderID, stepID, fulfillmentapp.AssignVendorRequest{
		VendorRef:   req.VendorRef,
		VendorName:  req.VendorName,
		CostAmount:  decimal.NewFromFloat(req.CostAmount),
		PlannedDate: req.PlannedDate,
		CreatedBy:   getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, PostingResultResponse{
		Posted:        result.Posted,
		AlreadyPosted: result.AlreadyPosted,
		LedgerID:      result.LedgerID,
	})
}

// MarkPaid handles POST /orders/:id/bill/paid
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.MarkBillPaid(c.Request.Context(), uri.ID, fulfillmentapp.MarkBillPaidRequest{
		PaidBy:      getActor(c),
		PaymentMode: req.PaymentMode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MigrateAll handles POST /orders/migrate/all
func (h *OrderHandler) MigrateAll(c *gin.Context) {
	report, err := h.migrationService.MigrateAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MigrateReportResponse{
		MigratedCount: report.MigratedCount,
		FailedCount:   report.FailedCount,
	})
}

// MigrateIDs handles POST /orders/migrate/ids
func (h *OrderHandler) MigrateIDs(c *gin.Context) {
	var req MigrateIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid order ID format: "+raw)
			return
		}
		ids = append(ids, id)
	}

	report, err := h.migrationService.MigrateIDs(c.Request.Context(), ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MigrateReportResponse{
		MigratedCount: report.MigratedCount,
		FailedCount:   report.FailedCount,
	})
}

// RegisterRoutes registers order routes on the given router group
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.POST("/migrate/all", h.MigrateAll)
		orders.POST("/migrate/ids", h.MigrateIDs)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/status", h.AppendStatus)
		orders.POST("/:id/steps/:stepId/assign-vendor", h.AssignVendor)
		orders.POST("/:id/bill/paid", h.MarkPaid)
	}
}

func toStatusSeed(in *StatusInput) *fulfillmentapp.StatusSeedRequest {
	if in == nil {
		return nil
	}
	return &fulfillmentapp.StatusSeedRequest{
		Task:         in.Task,
		AssignedTo:   in.AssignedTo,
		DeliveryDate: in.DeliveryDate,
	}
}
