package fulfillment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderService handles order lifecycle use cases: creation, status history
// appends, bill settlement and read access.
type OrderService struct {
	scope     TransactionScope
	orderRepo order.OrderRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(scope TransactionScope, orderRepo order.OrderRepository, publisher shared.EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		scope:     scope,
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Create creates a new order with a freshly allocated order number.
// When two requests race for the same number, the unique index rejects the
// second save and the allocation is retried once.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	if req.Status == nil {
		return nil, shared.NewDomainError("INVALID_STATUS", "Status task is required")
	}

	seed := order.StatusSeedInput{
		Task:         req.Status.Task,
		AssignedTo:   req.Status.AssignedTo,
		DeliveryDate: req.Status.DeliveryDate,
	}
	steps := make([]order.StepInput, len(req.Steps))
	for i, in := range req.Steps {
		steps[i] = order.StepInput{
			Label:       in.Label,
			Checked:     in.Checked,
			VendorRef:   in.VendorRef,
			VendorName:  in.VendorName,
			CostAmount:  in.CostAmount,
			PlannedDate: in.PlannedDate,
		}
	}
	items := make([]order.ItemInput, len(req.Items))
	for i, in := range req.Items {
		items[i] = order.ItemInput{
			Name:     in.Name,
			Quantity: in.Quantity,
			Rate:     in.Rate,
			Amount:   in.Amount,
			Priority: in.Priority,
			Remark:   in.Remark,
		}
	}

	var o *order.Order
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.orderRepo.NextOrderNumber(ctx)
		if err != nil {
			return nil, err
		}

		o, err = order.NewOrder(number, req.CustomerID, seed, steps, items)
		if err != nil {
			return nil, err
		}

		err = s.orderRepo.Save(ctx, o)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrAlreadyExists) && attempt == 0 {
			s.logger.Warn("order number collision, retrying allocation",
				zap.Int64("order_number", number))
			continue
		}
		return nil, err
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.Int64("order_number", o.OrderNumber))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// AppendStatus appends one status entry to an order's history. The identifier
// may be the order's internal uuid or its sequential number. Concurrent
// appends are serialized by optimistic locking: a version conflict surfaces
// as CONCURRENCY_CONFLICT and the client retries.
func (s *OrderService) AppendStatus(ctx context.Context, identifier string, req StatusSeedRequest) (*OrderResponse, error) {
	o, err := resolveOrder(ctx, s.orderRepo, identifier)
	if err != nil {
		return nil, err
	}

	entry, err := o.AppendStatus(req.Task, req.AssignedTo, req.DeliveryDate)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order status appended",
		zap.String("order_id", o.ID.String()),
		zap.String("task", entry.Task),
		zap.Int("sequence_number", entry.SequenceNumber))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByIdentifier returns a single order by uuid or sequential number
func (s *OrderService) GetByIdentifier(ctx context.Context, identifier string) (*OrderResponse, error) {
	o, err := resolveOrder(ctx, s.orderRepo, identifier)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List returns a paginated list of orders
func (s *OrderService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderListItemResponse], error) {
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToOrderListItemResponses(orders), total, filter.Page, filter.PageSize)
	return &result, nil
}

// MarkBillPaid settles an order's bill. When a payment mode is supplied and
// the order carries a sale subtotal, a balanced payment transaction (debit
// the payment-mode account, credit sales) is recorded in the same database
// transaction as the order update.
func (s *OrderService) MarkBillPaid(ctx context.Context, identifier string, req MarkBillPaidRequest) (*OrderResponse, error) {
	var o *order.Order

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		o, err = resolveOrder(ctx, repos.Orders(), identifier)
		if err != nil {
			return err
		}

		var paymentLedgerID *uuid.UUID
		if req.PaymentMode != "" && o.SaleSubtotal.IsPositive() {
			seq, err := repos.Ledger().NextSequenceID(ctx)
			if err != nil {
				return err
			}
			tx, err := ledger.NewTransaction(seq, time.Now(), "Bill payment for order #"+strconv.FormatInt(o.OrderNumber, 10), req.PaymentMode, req.PaidBy, []ledger.EntryInput{
				{AccountRef: req.PaymentMode, Type: ledger.EntryTypeDebit, Amount: o.SaleSubtotal},
				{AccountRef: ledger.SalesAccountRef, Type: ledger.EntryTypeCredit, Amount: o.SaleSubtotal},
			})
			if err != nil {
				return err
			}
			tx.LinkOrder(o.ID, o.OrderNumber)
			if err := repos.Ledger().Save(ctx, tx); err != nil {
				return err
			}
			paymentLedgerID = &tx.ID
		}

		if err := o.MarkBillPaid(req.PaidBy, paymentLedgerID); err != nil {
			return err
		}

		return repos.Orders().SaveWithLock(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order bill paid",
		zap.String("order_id", o.ID.String()),
		zap.String("paid_by", req.PaidBy))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// resolveOrder resolves an order by whichever identifier form parses:
// uuid first, then the sequential order number.
func resolveOrder(ctx context.Context, repo order.OrderRepository, identifier string) (*order.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, shared.ErrNotFound
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return repo.FindByID(ctx, id)
	}
	if number, err := strconv.ParseInt(identifier, 10, 64); err == nil && number > 0 {
		return repo.FindByOrderNumber(ctx, number)
	}

	return nil, shared.ErrNotFound
}

// publishEvents publishes the aggregate's pending domain events
func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.publisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
	o.ClearDomainEvents()
}
