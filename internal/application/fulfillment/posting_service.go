package fulfillment

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/ledger"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PostingService assigns vendors to order steps and posts their cost to the
// ledger. A step's cost is posted at most once; repeated assignments only
// update vendor metadata.
type PostingService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPostingService creates a new posting service
func NewPostingService(scope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *PostingService {
	return &PostingService{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
	}
}

// AssignVendorAndPost assigns a vendor to a step and, for a positive cost not
// yet posted, records the balanced vendor-cost transaction in the ledger.
// The ledger insert and the order update happen in one database transaction:
// either both commit or neither does.
//
// Idempotence branches, in order:
//  1. step already posted: update vendor metadata only, return the existing
//     ledger reference
//  2. zero cost: no ledger entry, the step is marked done
//  3. positive cost: allocate a sequence id, insert the Debit-vendor /
//     Credit-clearing transaction, flip the step to posted
//
// A sequence-id collision from a concurrent posting rolls the transaction
// back and the whole operation is retried once.
func (s *PostingService) AssignVendorAndPost(ctx context.Context, orderIdentifier string, stepID uuid.UUID, req AssignVendorRequest) (*PostingResult, error) {
	var (
		result PostingResult
		o      *order.Order
	)

	run := func() error {
		result = PostingResult{}
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			o, err = resolveOrder(ctx, repos.Orders(), orderIdentifier)
			if err != nil {
				return err
			}

			step := o.FindStep(stepID)
			if step == nil {
				return shared.NewDomainError("STEP_NOT_FOUND", "Order step not found")
			}

			if err := o.AssignVendorToStep(stepID, req.VendorRef, req.VendorName, req.CostAmount, req.PlannedDate); err != nil {
				return err
			}

			switch {
			case step.Posting.IsPosted:
				result.AlreadyPosted = true
				result.LedgerID = step.Posting.LedgerID

			case req.CostAmount.IsZero():
				if err := o.MarkStepDone(stepID); err != nil {
					return err
				}

			default:
				seq, err := repos.Ledger().NextSequenceID(ctx)
				if err != nil {
					return err
				}
				description := "Outsourcing cost for order #" +
					strconv.FormatInt(o.OrderNumber, 10) + ", step " + step.Label
				tx, err := ledger.NewVendorPostingTransaction(seq, req.VendorRef, description, req.CreatedBy, req.CostAmount)
				if err != nil {
					return err
				}
				tx.LinkOrder(o.ID, o.OrderNumber)

				if err := repos.Ledger().Save(ctx, tx); err != nil {
					return err
				}
				if err := o.MarkStepPosted(stepID, tx.ID); err != nil {
					return err
				}

				result.Posted = true
				result.LedgerID = &tx.ID
			}

			return repos.Orders().SaveWithLock(ctx, o)
		})
	}

	err := run()
	if errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Warn("ledger sequence collision, retrying posting",
			zap.String("order", orderIdentifier),
			zap.String("step_id", stepID.String()))
		err = run()
	}
	if err != nil {
		return nil, err
	}

	s.publishOrderEvents(ctx, o)

	s.logger.Info("vendor assigned to step",
		zap.String("order_id", o.ID.String()),
		zap.String("step_id", stepID.String()),
		zap.String("vendor_ref", req.VendorRef),
		zap.Bool("posted", result.Posted),
		zap.Bool("already_posted", result.AlreadyPosted))

	return &result, nil
}

func (s *PostingService) publishOrderEvents(ctx context.Context, o *order.Order) {
	if s.publisher == nil || o == nil {
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
