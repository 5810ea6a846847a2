package metrics

import (
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

// EventMetricsCollector subscribes to domain events and records metrics.
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector.
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Subscriber is the subset of the event bus the collector needs.
type Subscriber interface {
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
}

// Register subscribes to all events the collector cares about.
func (e *EventMetricsCollector) Register(bus Subscriber) error {
	return bus.Subscribe(shared.EventAttemptRecorded, e.HandleEvent)
}

// HandleEvent processes events and updates metrics.
func (e *EventMetricsCollector) HandleEvent(evt shared.Event) error {
	EventsPublished.WithLabelValues(string(evt.EventType())).Inc()

	if recorded, ok := evt.(shared.AttemptRecordedEvent); ok {
		AttemptsRecorded.WithLabelValues(recorded.Category).Inc()
	}
	return nil
}
