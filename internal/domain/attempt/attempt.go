// Package attempt contains the exercise-attempt aggregate: the immutable fact
// of one completed-or-abandoned exercise interaction, plus the store contract
// the analytics queries are computed over.
package attempt

import (
	"math"
	"strings"
	"time"

	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// Category is the fixed practice-area enumeration. The enumeration order is
// load-bearing: summary tie-breaks keep the first-enumerated category.
type Category string

const (
	// CategoryReading - reading comprehension drills.
	CategoryReading Category = "reading"

	// CategoryWriting - writing and spelling drills.
	CategoryWriting Category = "writing"

	// CategoryComprehension - listening/semantic comprehension drills.
	CategoryComprehension Category = "comprehension"
)

// Categories returns all categories in enumeration order.
func Categories() []Category {
	return []Category{CategoryReading, CategoryWriting, CategoryComprehension}
}

// ParseCategory parses and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", shared.NewValidationError("category", "unknown category "+s)
	}
	return c, nil
}

// Valid reports whether the category belongs to the fixed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryReading, CategoryWriting, CategoryComprehension:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT
// ══════════════════════════════════════════════════════════════════════════════

// Attempt is one exercise attempt. It is created exactly once and never
// updated or deleted by this service; every aggregate is recomputed from the
// stored attempts on demand.
type Attempt struct {
	// ID is the attempt identifier (UUID, assigned at ingestion).
	ID string

	// UserID is the owning user. Opaque: identity is resolved upstream.
	UserID string

	// Category is the practice area.
	Category Category

	// ExerciseType is a free-form exercise tag (e.g. "syllable-match").
	ExerciseType string

	// ExerciseID optionally references the concrete exercise.
	ExerciseID string

	// Score achieved, 0 <= Score <= MaxScore.
	Score float64

	// MaxScore is the maximum achievable score, >= 1.
	MaxScore float64

	// Completed marks whether the exercise was finished.
	Completed bool

	// DurationMs is the time spent, >= 0.
	DurationMs int64

	// CreatedAt is the ingestion instant, server-assigned.
	CreatedAt time.Time
}

// New creates an Attempt, enforcing the record invariants.
func New(id, userID string, category Category, exerciseType, exerciseID string, score, maxScore float64, completed bool, durationMs int64, createdAt time.Time) (*Attempt, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "attempt id is required")
	}
	if userID == "" {
		return nil, shared.NewValidationError("userId", "user id is required")
	}
	if !category.Valid() {
		return nil, shared.NewValidationError("category", "unknown category "+string(category))
	}
	if exerciseType == "" {
		return nil, shared.NewValidationError("exerciseType", "exercise type is required")
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, shared.NewValidationError("score", "score must be a finite number")
	}
	if math.IsNaN(maxScore) || math.IsInf(maxScore, 0) {
		return nil, shared.NewValidationError("maxScore", "max score must be a finite number")
	}
	if maxScore < 1 {
		return nil, shared.NewValidationError("maxScore", "max score must be at least 1")
	}
	if score < 0 || score > maxScore {
		return nil, shared.NewValidationError("score", "score must be within [0, maxScore]")
	}
	if durationMs < 0 {
		return nil, shared.NewValidationError("durationMs", "duration must not be negative")
	}
	if createdAt.IsZero() {
		return nil, shared.NewValidationError("createdAt", "created at is required")
	}

	return &Attempt{
		ID:           id,
		UserID:       userID,
		Category:     category,
		ExerciseType: exerciseType,
		ExerciseID:   exerciseID,
		Score:        score,
		MaxScore:     maxScore,
		Completed:    completed,
		DurationMs:   durationMs,
		CreatedAt:    createdAt,
	}, nil
}

// Percent returns the attempt's score as a percentage of the maximum.
// Never stored; recomputed wherever averages are built.
func (a *Attempt) Percent() float64 {
	return 100 * a.Score / a.MaxScore
}
