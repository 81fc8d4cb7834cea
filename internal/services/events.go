package services

import (
	"context"
	"log"

	"roamwyth/internal/observability"
	"roamwyth/internal/rabbitmq"
)

// publishEvent is fire-and-forget: the database write has already committed,
// so a broker failure is logged and counted rather than returned.
func publishEvent(ctx context.Context, publisher rabbitmq.Publisher, routingKey string, payload any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, payload); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("warning: failed to publish %s: %v", routingKey, err)
	}
}
