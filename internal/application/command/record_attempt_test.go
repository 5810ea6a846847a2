package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/persistence/memory"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

var fixedNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newHandler(t *testing.T) (*RecordAttemptHandler, *memory.AttemptStore, *capturingPublisher) {
	t.Helper()
	store := memory.NewAttemptStore(timeutil.NewBucketer(time.UTC))
	pub := &capturingPublisher{}
	h := NewRecordAttemptHandler(store, pub, func() time.Time { return fixedNow })
	return h, store, pub
}

func validCommand() RecordAttemptCommand {
	return RecordAttemptCommand{
		UserID:       "u1",
		Category:     "reading",
		ExerciseType: "syllable-match",
		Score:        8,
		MaxScore:     10,
		Completed:    true,
		DurationMs:   5200,
	}
}

func TestRecordAttempt(t *testing.T) {
	h, store, pub := newHandler(t)

	res, err := h.Handle(context.Background(), validCommand())
	require.NoError(t, err)

	assert.NotEmpty(t, res.AttemptID)
	assert.Equal(t, fixedNow, res.CreatedAt)
	assert.Equal(t, 1, store.Len())

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventAttemptRecorded, pub.events[0].EventType())
	assert.Equal(t, res.AttemptID, pub.events[0].AggregateID())
}

func TestRecordAttemptClampsScore(t *testing.T) {
	h, store, _ := newHandler(t)
	ctx := context.Background()

	// Over-reported score clamps to the maximum instead of failing.
	cmd := validCommand()
	cmd.Score = 12
	_, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	cat := attempt.CategoryReading
	avg, err := store.AveragePercentInRange(ctx, "u1", &cat, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 100.0, *avg, 1e-9)

	// Negative scores clamp to zero.
	cmd = validCommand()
	cmd.UserID = "u2"
	cmd.Score = -3
	_, err = h.Handle(ctx, cmd)
	require.NoError(t, err)

	avg, err = store.AveragePercentInRange(ctx, "u2", &cat, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 0.0, *avg, 1e-9)
}

func TestRecordAttemptFloorsDuration(t *testing.T) {
	h, _, pub := newHandler(t)

	cmd := validCommand()
	cmd.DurationMs = -500
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	recorded, ok := pub.events[0].(shared.AttemptRecordedEvent)
	require.True(t, ok)
	assert.EqualValues(t, 0, recorded.DurationMs)
}

func TestRecordAttemptValidation(t *testing.T) {
	h, store, pub := newHandler(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*RecordAttemptCommand)
		wantField string
	}{
		{"missing user", func(c *RecordAttemptCommand) { c.UserID = "" }, "userId"},
		{"missing category", func(c *RecordAttemptCommand) { c.Category = "" }, "category"},
		{"unknown category", func(c *RecordAttemptCommand) { c.Category = "algebra" }, "category"},
		{"missing exercise type", func(c *RecordAttemptCommand) { c.ExerciseType = "" }, "exerciseType"},
		{"max score below one", func(c *RecordAttemptCommand) { c.MaxScore = 0 }, "maxScore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCommand()
			tt.mutate(&cmd)

			res, err := h.Handle(ctx, cmd)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, shared.IsValidation(err))
			assert.Equal(t, tt.wantField, shared.ValidationField(err))
		})
	}

	// Failed commands mutate nothing: no inserts, no events.
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, pub.events)
}

func TestRecordAttemptNilPublisher(t *testing.T) {
	store := memory.NewAttemptStore(timeutil.NewBucketer(time.UTC))
	h := NewRecordAttemptHandler(store, nil, func() time.Time { return fixedNow })

	_, err := h.Handle(context.Background(), validCommand())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
