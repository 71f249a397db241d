package services

import (
	"context"

	"bankit/internal/amqp"
	"bankit/internal/log"
)

// EventPublisher publishes account events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event amqp.AccountEvent) error
}

// publish sends the event when a publisher is configured. Failures are
// logged only: the change is already stored.
func (s *AccountService) publish(ctx context.Context, eventType string, opID int64, month string) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", log.FieldEventType, eventType)
		return
	}
	ev := amqp.NewAccountEvent(eventType, opID, month)
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish account event",
			log.FieldEventType, eventType,
			log.FieldOperationID, opID,
			log.FieldError, err.Error())
	}
}
