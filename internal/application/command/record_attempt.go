// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ATTEMPT COMMAND
// Ingests one exercise-attempt fact. This is the engine's single write path:
// everything else is recomputed from the stored attempts on demand.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAttemptCommand contains the data to record an attempt.
type RecordAttemptCommand struct {
	// UserID is the resolved identity of the learner. Trusted as-is;
	// authentication happens upstream.
	UserID string

	// Category is the practice area, one of the fixed set.
	Category string

	// ExerciseType is a free-form exercise tag.
	ExerciseType string

	// ExerciseID optionally references the concrete exercise.
	ExerciseID string

	// Score achieved. Out-of-range values are clamped, not rejected:
	// client-side timing races routinely over-report by a point.
	Score float64

	// MaxScore is the maximum achievable score.
	MaxScore float64

	// Completed marks whether the exercise was finished.
	Completed bool

	// DurationMs is the time spent; negative values are floored at 0.
	DurationMs int64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command. Validation never mutates state: a command
// that fails here has touched nothing.
func (c RecordAttemptCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewValidationError("userId", "user id is required")
	}
	if c.Category == "" {
		return shared.NewValidationError("category", "category is required")
	}
	if _, err := attempt.ParseCategory(c.Category); err != nil {
		return err
	}
	if c.ExerciseType == "" {
		return shared.NewValidationError("exerciseType", "exercise type is required")
	}
	if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
		return shared.NewValidationError("score", "score must be a finite number")
	}
	if math.IsNaN(c.MaxScore) || math.IsInf(c.MaxScore, 0) {
		return shared.NewValidationError("maxScore", "max score must be a finite number")
	}
	if c.MaxScore < 1 {
		return shared.NewValidationError("maxScore", "max score must be at least 1")
	}
	return nil
}

// RecordAttemptResult contains the result of recording an attempt.
type RecordAttemptResult struct {
	// AttemptID is the identifier of the persisted attempt.
	AttemptID string

	// CreatedAt is the server-assigned ingestion instant.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordAttemptHandler handles the RecordAttemptCommand.
type RecordAttemptHandler struct {
	store     attempt.Store
	publisher shared.EventPublisher
	clock     func() time.Time
}

// NewRecordAttemptHandler creates a new RecordAttemptHandler. A nil clock
// defaults to the wall clock; tests inject a fixed one.
func NewRecordAttemptHandler(store attempt.Store, publisher shared.EventPublisher, clock func() time.Time) *RecordAttemptHandler {
	if clock == nil {
		clock = time.Now
	}
	return &RecordAttemptHandler{
		store:     store,
		publisher: publisher,
		clock:     clock,
	}
}

// Handle executes the record attempt command.
func (h *RecordAttemptHandler) Handle(ctx context.Context, cmd RecordAttemptCommand) (*RecordAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	category, err := attempt.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	// Silent clamp into [0, maxScore]; tolerated, not an error.
	score := cmd.Score
	if score < 0 {
		score = 0
	}
	if score > cmd.MaxScore {
		score = cmd.MaxScore
	}

	durationMs := cmd.DurationMs
	if durationMs < 0 {
		durationMs = 0
	}

	// CreatedAt is server-assigned, never client-supplied.
	createdAt := h.clock()

	rec, err := attempt.New(
		uuid.NewString(),
		cmd.UserID,
		category,
		cmd.ExerciseType,
		cmd.ExerciseID,
		score,
		cmd.MaxScore,
		cmd.Completed,
		durationMs,
		createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := h.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if h.publisher != nil {
		event := shared.NewAttemptRecordedEvent(
			rec.ID,
			rec.UserID,
			string(rec.Category),
			rec.ExerciseType,
			rec.Percent(),
			rec.Completed,
			rec.DurationMs,
		)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		// The write has already succeeded; a publish failure must not fail it.
		_ = h.publisher.Publish(event)
	}

	return &RecordAttemptResult{
		AttemptID: rec.ID,
		CreatedAt: rec.CreatedAt,
	}, nil
}
