package event

import (
	"context"

	"github.com/opsdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LoggingPublisher publishes domain events by writing them to the structured
// log. Downstream consumers tail the log stream; there is no broker.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger.Named("events")}
}

var _ shared.EventPublisher = (*LoggingPublisher)(nil)

// Publish logs each event with its aggregate context
func (p *LoggingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.logger.Info("domain event",
			zap.String("event_id", e.EventID().String()),
			zap.String("event_type", e.EventType()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	}
	return nil
}
