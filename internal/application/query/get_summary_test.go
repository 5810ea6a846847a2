package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/progress"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/persistence/memory"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

func summaryFixture(t *testing.T) (*GetSummaryHandler, *memory.AttemptStore) {
	t.Helper()
	buckets := timeutil.NewBucketer(time.UTC)
	store := memory.NewAttemptStore(buckets)
	h := NewGetSummaryHandler(store, buckets, progress.NewCalculator(buckets), func() time.Time { return seriesNow })
	return h, store
}

func TestSummaryFirstAttempt(t *testing.T) {
	h, store := summaryFixture(t)

	// A brand-new learner scores 8/10 in reading today.
	insertAttempt(t, store, "u1", attempt.CategoryReading, 8, 10, seriesNow)

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, res.CompletedExercises)
	assert.Equal(t, 1, res.StreakDays)
	assert.Equal(t, 80, res.OverallImprovement)
	assert.Equal(t, "reading", res.BestCategory)

	reading := res.PerCategory["reading"]
	assert.Equal(t, 80, reading.Last7Avg)
	assert.Equal(t, 0, reading.Prev7Avg)
	assert.Equal(t, 80, reading.Delta)

	// The other categories exist with zeroed windows.
	require.Len(t, res.PerCategory, 3)
	assert.Equal(t, CategoryDelta{}, res.PerCategory["writing"])
	assert.Equal(t, CategoryDelta{}, res.PerCategory["comprehension"])
}

func TestSummaryWindowBoundaries(t *testing.T) {
	h, store := summaryFixture(t)

	// last7 window: [2024-05-04T00:00, 2024-05-11T00:00).
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 9, 10, seriesNow)                 // in last7
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 7, 10, seriesNow.AddDate(0, 0, -6)) // in last7
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 5, 10, seriesNow.AddDate(0, 0, -7)) // in prev7
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 3, 10, seriesNow.AddDate(0, 0, -13)) // in prev7
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 1, 10, seriesNow.AddDate(0, 0, -14)) // outside both

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	writing := res.PerCategory["writing"]
	assert.Equal(t, 80, writing.Last7Avg) // (90+70)/2
	assert.Equal(t, 40, writing.Prev7Avg) // (50+30)/2
	assert.Equal(t, 40, writing.Delta)
}

func TestSummaryDeltaRoundsOnce(t *testing.T) {
	h, store := summaryFixture(t)

	// last7 raw 75.4, prev7 raw 74.9. Rounding each window first gives
	// 75-75=0; rounding the raw difference gives 1.
	insertAttempt(t, store, "u1", attempt.CategoryReading, 377, 500, seriesNow)
	insertAttempt(t, store, "u1", attempt.CategoryReading, 749, 1000, seriesNow.AddDate(0, 0, -8))

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	reading := res.PerCategory["reading"]
	assert.Equal(t, 75, reading.Last7Avg)
	assert.Equal(t, 75, reading.Prev7Avg)
	assert.Equal(t, 1, reading.Delta)
	assert.Equal(t, 1, res.OverallImprovement)
}

func TestSummaryStreakWithGap(t *testing.T) {
	h, store := summaryFixture(t)

	// Active today, yesterday, two days ago; gap; four days ago.
	for _, back := range []int{0, 1, 2, 4} {
		insertAttempt(t, store, "u1", attempt.CategoryComprehension, 8, 10, seriesNow.AddDate(0, 0, -back))
	}

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.StreakDays)
	assert.EqualValues(t, 4, res.CompletedExercises)
}

func TestSummaryStreakRequiresToday(t *testing.T) {
	h, store := summaryFixture(t)

	insertAttempt(t, store, "u1", attempt.CategoryReading, 8, 10, seriesNow.AddDate(0, 0, -1))
	insertAttempt(t, store, "u1", attempt.CategoryReading, 8, 10, seriesNow.AddDate(0, 0, -2))

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.StreakDays)
}

func TestSummaryBestCategoryTie(t *testing.T) {
	h, store := summaryFixture(t)

	// Writing and comprehension tie on delta; reading stays at zero.
	// Enumeration order breaks the tie in favor of writing.
	insertAttempt(t, store, "u1", attempt.CategoryWriting, 6, 10, seriesNow)
	insertAttempt(t, store, "u1", attempt.CategoryComprehension, 6, 10, seriesNow)

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "writing", res.BestCategory)
	assert.Equal(t, 60, res.PerCategory["writing"].Delta)
	assert.Equal(t, 60, res.PerCategory["comprehension"].Delta)
}

func TestSummaryNoActivity(t *testing.T) {
	h, _ := summaryFixture(t)

	res, err := h.Handle(context.Background(), GetSummaryQuery{UserID: "ghost"})
	require.NoError(t, err)

	assert.EqualValues(t, 0, res.CompletedExercises)
	assert.Equal(t, 0, res.StreakDays)
	assert.Equal(t, 0, res.OverallImprovement)
	// All deltas are zero, so the first-enumerated category wins by default.
	assert.Equal(t, "reading", res.BestCategory)
	require.Len(t, res.PerCategory, 3)
}

func TestSummaryValidation(t *testing.T) {
	h, _ := summaryFixture(t)

	_, err := h.Handle(context.Background(), GetSummaryQuery{UserID: ""})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, "userId", shared.ValidationField(err))
}
