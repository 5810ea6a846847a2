// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain.
const (
	// Attempt events
	EventAttemptRecorded EventType = "attempt.recorded"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single event. Returning an error never affects the
// operation that published the event.
type EventHandler func(Event) error

// EventPublisher is the outbound port for emitting domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Attempt Events
// ═══════════════════════════════════════════════════════════════════════════

// AttemptRecordedEvent is emitted after an exercise attempt is persisted.
type AttemptRecordedEvent struct {
	BaseEvent
	UserID       string  `json:"user_id"`
	Category     string  `json:"category"`
	ExerciseType string  `json:"exercise_type"`
	Percent      float64 `json:"percent"`
	Completed    bool    `json:"completed"`
	DurationMs   int64   `json:"duration_ms"`
}

// Payload implements Event interface.
func (e AttemptRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"category":      e.Category,
		"exercise_type": e.ExerciseType,
		"percent":       e.Percent,
		"completed":     e.Completed,
		"duration_ms":   e.DurationMs,
	}
}

// NewAttemptRecordedEvent creates a new AttemptRecordedEvent.
func NewAttemptRecordedEvent(attemptID, userID, category, exerciseType string, percent float64, completed bool, durationMs int64) AttemptRecordedEvent {
	return AttemptRecordedEvent{
		BaseEvent:    NewBaseEvent(EventAttemptRecorded, attemptID),
		UserID:       userID,
		Category:     category,
		ExerciseType: exerciseType,
		Percent:      percent,
		Completed:    completed,
		DurationMs:   durationMs,
	}
}
