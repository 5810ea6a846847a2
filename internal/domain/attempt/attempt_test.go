package attempt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectura-hub/progress-engine/internal/domain/shared"
)

var testCreatedAt = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("arithmetic")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, "category", shared.ValidationField(err))
}

func TestCategoriesEnumerationOrder(t *testing.T) {
	assert.Equal(t, []Category{CategoryReading, CategoryWriting, CategoryComprehension}, Categories())
}

func TestNewAttempt(t *testing.T) {
	a, err := New("a1", "u1", CategoryReading, "syllable-match", "ex-9", 8, 10, true, 4200, testCreatedAt)
	require.NoError(t, err)

	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, CategoryReading, a.Category)
	assert.InDelta(t, 80.0, a.Percent(), 1e-9)
}

func TestNewAttemptValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func() (*Attempt, error)
		wantField string
	}{
		{
			name: "missing user",
			mutate: func() (*Attempt, error) {
				return New("a1", "", CategoryReading, "t", "", 1, 10, true, 0, testCreatedAt)
			},
			wantField: "userId",
		},
		{
			name: "unknown category",
			mutate: func() (*Attempt, error) {
				return New("a1", "u1", Category("algebra"), "t", "", 1, 10, true, 0, testCreatedAt)
			},
			wantField: "category",
		},
		{
			name: "missing exercise type",
			mutate: func() (*Attempt, error) {
				return New("a1", "u1", CategoryWriting, "", "", 1, 10, true, 0, testCreatedAt)
			},
			wantField: "exerciseType",
		},
		{
			name: "max score below one",
			mutate: func() (*Attempt, error) {
				return New("a1", "u1", CategoryWriting, "t", "", 0, 0.5, true, 0, testCreatedAt)
			},
			wantField: "maxScore",
		},
		{
			name: "score above max",
			mutate: func() (*Attempt, error) {
				return New("a1", "u1", CategoryWriting, "t", "", 12, 10, true, 0, testCreatedAt)
			},
			wantField: "score",
		},
		{
			name: "negative duration",
			mutate: func() (*Attempt, error) {
				return New("a1", "u1", CategoryWriting, "t", "", 1, 10, true, -1, testCreatedAt)
			},
			wantField: "durationMs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.mutate()
			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, shared.IsValidation(err))
			assert.Equal(t, tt.wantField, shared.ValidationField(err))
		})
	}
}
