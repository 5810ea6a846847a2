package query

import (
	"context"
	"math"
	"time"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/progress"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUMMARY QUERY
// Completion totals, the current daily streak, and week-over-week score
// deltas per category. The two 7-day windows are adjacent and non-overlapping,
// bounded at civil midnights so partial "today" activity never biases them:
// last7 covers [start-of-tomorrow - 7d, start-of-tomorrow), prev7 the seven
// days before that.
// ══════════════════════════════════════════════════════════════════════════════

// activeDayKeyLimit caps the streak walk input: a streak longer than a year
// reads the same as "every day".
const activeDayKeyLimit = 365

// summaryWindowDays is the length of each comparison window.
const summaryWindowDays = 7

// GetSummaryQuery contains the parameters for a progress summary.
type GetSummaryQuery struct {
	// UserID is the resolved identity of the learner.
	UserID string
}

// Validate validates the query parameters.
func (q *GetSummaryQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewValidationError("userId", "user id is required")
	}
	return nil
}

// CategoryDelta is the week-over-week comparison for one category (or for all
// categories combined).
type CategoryDelta struct {
	// Last7Avg is the rounded average percent over the most recent window;
	// 0 when the window has no data.
	Last7Avg int `json:"last7Avg"`

	// Prev7Avg is the rounded average percent over the preceding window.
	Prev7Avg int `json:"prev7Avg"`

	// Delta is computed from the raw averages and rounded once; rounding the
	// window averages first and then subtracting loses up to a full point.
	Delta int `json:"delta"`
}

// GetSummaryResult contains the computed summary.
type GetSummaryResult struct {
	// CompletedExercises is the all-time count of completed attempts.
	CompletedExercises int64 `json:"completedExercises"`

	// StreakDays is the current consecutive-active-day streak including today.
	StreakDays int `json:"streakDays"`

	// OverallImprovement is the delta of the combined (all categories) view.
	OverallImprovement int `json:"overallImprovement"`

	// BestCategory is the category with the strictly greatest delta; ties
	// keep the first-enumerated category.
	BestCategory string `json:"bestCategory"`

	// PerCategory maps each category to its window comparison.
	PerCategory map[string]CategoryDelta `json:"perCategory"`
}

// GetSummaryHandler computes progress summaries.
type GetSummaryHandler struct {
	store   attempt.Store
	buckets *timeutil.Bucketer
	streaks *progress.Calculator
	clock   func() time.Time
}

// NewGetSummaryHandler creates a new handler. A nil clock defaults to the
// wall clock.
func NewGetSummaryHandler(store attempt.Store, buckets *timeutil.Bucketer, streaks *progress.Calculator, clock func() time.Time) *GetSummaryHandler {
	if clock == nil {
		clock = time.Now
	}
	return &GetSummaryHandler{
		store:   store,
		buckets: buckets,
		streaks: streaks,
		clock:   clock,
	}
}

// Handle executes the query. Any store failure aborts the whole summary: a
// result missing one category's data would be indistinguishable from "zero
// activity" to the caller.
func (h *GetSummaryHandler) Handle(ctx context.Context, q GetSummaryQuery) (*GetSummaryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := h.clock()

	completed, err := h.store.CountCompleted(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	activeKeys, err := h.store.ActiveDayKeys(ctx, q.UserID, activeDayKeyLimit)
	if err != nil {
		return nil, err
	}
	streak := h.streaks.Streak(activeKeys, now)

	// Window boundaries from civil midnights, not from `now` directly.
	end := h.buckets.StartOfNextDay(now)
	lastStart := end.AddDate(0, 0, -summaryWindowDays)
	prevStart := end.AddDate(0, 0, -2*summaryWindowDays)

	perCategory := make(map[string]CategoryDelta, len(attempt.Categories()))
	bestCategory := ""
	bestDelta := math.Inf(-1)

	for _, category := range attempt.Categories() {
		c := category
		last, err := h.store.AveragePercentInRange(ctx, q.UserID, &c, lastStart, end)
		if err != nil {
			return nil, err
		}
		prev, err := h.store.AveragePercentInRange(ctx, q.UserID, &c, prevStart, lastStart)
		if err != nil {
			return nil, err
		}

		delta, rawDelta := windowDelta(last, prev)
		perCategory[string(category)] = delta

		// Strictly greater wins; ties keep the earlier category.
		if rawDelta > bestDelta {
			bestDelta = rawDelta
			bestCategory = string(category)
		}
	}

	overallLast, err := h.store.AveragePercentInRange(ctx, q.UserID, nil, lastStart, end)
	if err != nil {
		return nil, err
	}
	overallPrev, err := h.store.AveragePercentInRange(ctx, q.UserID, nil, prevStart, lastStart)
	if err != nil {
		return nil, err
	}
	overall, _ := windowDelta(overallLast, overallPrev)

	return &GetSummaryResult{
		CompletedExercises: completed,
		StreakDays:         streak,
		OverallImprovement: overall.Delta,
		BestCategory:       bestCategory,
		PerCategory:        perCategory,
	}, nil
}

// windowDelta folds two optional raw window averages into the rounded
// comparison. A window with no data contributes a raw 0: absence is zero.
func windowDelta(last, prev *float64) (CategoryDelta, float64) {
	var lastRaw, prevRaw float64
	if last != nil {
		lastRaw = *last
	}
	if prev != nil {
		prevRaw = *prev
	}

	raw := lastRaw - prevRaw
	return CategoryDelta{
		Last7Avg: int(math.Round(lastRaw)),
		Prev7Avg: int(math.Round(prevRaw)),
		Delta:    int(math.Round(raw)),
	}, raw
}
