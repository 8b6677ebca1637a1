package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// migrationBatchSize bounds how many legacy orders are loaded per pass.
const migrationBatchSize = 200

// MigrationService converts orders stored in the legacy flat-field shape into
// the structured shape. The conversion is idempotent: an already-structured
// order is counted as zero work and a second run over the same data changes
// nothing.
type MigrationService struct {
	orderRepo order.OrderRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewMigrationService creates a new migration service
func NewMigrationService(orderRepo order.OrderRepository, publisher shared.EventPublisher, logger *zap.Logger) *MigrationService {
	return &MigrationService{
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// MigrateAll migrates every order still in the legacy shape, in batches.
// A failure on one order is logged and skipped; it never aborts the sweep.
func (s *MigrationService) MigrateAll(ctx context.Context) (*MigrateReport, error) {
	report := &MigrateReport{}
	failed := make(map[uuid.UUID]bool)

	for {
		batch, err := s.orderRepo.FindNeedingMigration(ctx, migrationBatchSize)
		if err != nil {
			return nil, err
		}

		progressed := false
		for i := range batch {
			o := &batch[i]
			if failed[o.ID] {
				continue
			}
			if s.migrateOne(ctx, o, report) {
				progressed = true
			} else {
				failed[o.ID] = true
			}
		}

		// Failed orders stay in the legacy shape and would be returned
		// again; stop once a pass makes no progress.
		if len(batch) < migrationBatchSize || !progressed {
			break
		}
	}

	s.logger.Info("legacy order migration finished",
		zap.Int("migrated", report.MigratedCount),
		zap.Int("failed", report.FailedCount))

	return report, nil
}

// MigrateIDs migrates the orders with the given IDs. IDs that resolve to no
// order, or to an order already in the structured shape, are skipped.
func (s *MigrationService) MigrateIDs(ctx context.Context, ids []uuid.UUID) (*MigrateReport, error) {
	if len(ids) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one order id is required")
	}

	orders, err := s.orderRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &MigrateReport{}
	for i := range orders {
		s.migrateOne(ctx, &orders[i], report)
	}

	s.logger.Info("targeted order migration finished",
		zap.Int("requested", len(ids)),
		zap.Int("migrated", report.MigratedCount),
		zap.Int("failed", report.FailedCount))

	return report, nil
}

// migrateOne converts and saves a single order, updating the report.
// Returns false when the save failed.
func (s *MigrationService) migrateOne(ctx context.Context, o *order.Order, report *MigrateReport) bool {
	if !o.MigrateLegacyShape() {
		return true
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		report.FailedCount++
		s.logger.Warn("failed to migrate order",
			zap.String("order_id", o.ID.String()),
			zap.Int64("order_number", o.OrderNumber),
			zap.Error(err))
		return false
	}

	report.MigratedCount++

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish migration events",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
		}
		o.ClearDomainEvents()
	}

	return true
}
