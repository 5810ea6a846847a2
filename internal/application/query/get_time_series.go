// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"math"
	"time"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TIME SERIES QUERY
// Daily average score percentage for one category over a trailing window.
// Every day of the window appears in the output: a day with no attempts
// scores 0 rather than being omitted, so charts render gaps honestly.
// ══════════════════════════════════════════════════════════════════════════════

// GetTimeSeriesQuery contains the parameters for a daily score series.
type GetTimeSeriesQuery struct {
	// UserID is the resolved identity of the learner.
	UserID string

	// Category is the practice area; must be one of the fixed set.
	Category string

	// Days is the trailing window length, clamped to [1, 180].
	Days int

	// Locale selects the day-label formatting (default Spanish).
	Locale string
}

// Validate validates the query parameters.
func (q *GetTimeSeriesQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewValidationError("userId", "user id is required")
	}
	if q.Category == "" {
		return shared.NewValidationError("category", "category is required")
	}
	if _, err := attempt.ParseCategory(q.Category); err != nil {
		return err
	}
	return nil
}

// TimeSeriesPoint is one day of the series.
type TimeSeriesPoint struct {
	// Date is the canonical day key (YYYY-MM-DD).
	Date string `json:"date"`

	// Label is the locale-formatted display date.
	Label string `json:"label"`

	// Score is the rounded average percent for the day; 0 when no attempts.
	Score int `json:"score"`
}

// GetTimeSeriesResult contains the computed series.
type GetTimeSeriesResult struct {
	Category string            `json:"category"`
	Days     int               `json:"days"`
	Data     []TimeSeriesPoint `json:"data"`
}

// GetTimeSeriesHandler computes daily score series.
type GetTimeSeriesHandler struct {
	store   attempt.Store
	buckets *timeutil.Bucketer
	clock   func() time.Time
}

// NewGetTimeSeriesHandler creates a new handler. A nil clock defaults to the
// wall clock.
func NewGetTimeSeriesHandler(store attempt.Store, buckets *timeutil.Bucketer, clock func() time.Time) *GetTimeSeriesHandler {
	if clock == nil {
		clock = time.Now
	}
	return &GetTimeSeriesHandler{
		store:   store,
		buckets: buckets,
		clock:   clock,
	}
}

// Handle executes the query.
func (h *GetTimeSeriesHandler) Handle(ctx context.Context, q GetTimeSeriesQuery) (*GetTimeSeriesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	category, err := attempt.ParseCategory(q.Category)
	if err != nil {
		return nil, err
	}

	days := timeutil.ClampWindowDays(q.Days)
	now := h.clock()

	keys := h.buckets.TrailingDayKeys(days, now)

	start, err := h.buckets.DayStart(keys[0])
	if err != nil {
		return nil, shared.WrapError("query", "GetTimeSeries", shared.ErrInvalidInput, "bad window start", err)
	}
	end := h.buckets.StartOfNextDay(now)

	averages, err := h.store.DailyAveragePercent(ctx, q.UserID, &category, start, end)
	if err != nil {
		return nil, err
	}

	data := make([]TimeSeriesPoint, len(keys))
	for i, key := range keys {
		// Absence is zero, not null.
		score := 0
		if avg, ok := averages[key]; ok {
			score = int(math.Round(avg))
		}
		data[i] = TimeSeriesPoint{
			Date:  key,
			Label: h.buckets.Label(key, q.Locale),
			Score: score,
		}
	}

	return &GetTimeSeriesResult{
		Category: string(category),
		Days:     days,
		Data:     data,
	}, nil
}
