package streaming

import (
	"context"

	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
)

// EventBusPublisher implements services.EventPublisher on top of the event
// bus. WebSocket clients receive events through WebSocketHub.Relay.
type EventBusPublisher struct {
	eventBus *EventBus
}

var _ services.EventPublisher = (*EventBusPublisher)(nil)

// NewEventBusPublisher creates a new publisher adapter
func NewEventBusPublisher(eventBus *EventBus) *EventBusPublisher {
	return &EventBusPublisher{eventBus: eventBus}
}

// PublishAnalysis publishes the event for a completed analysis
func (p *EventBusPublisher) PublishAnalysis(ctx context.Context, rec models.AnalysisRecord) error {
	return p.eventBus.Publish(ctx, NewAnalysisEvent(rec))
}
