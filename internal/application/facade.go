// Package application wires the command and query handlers into the single
// transport-agnostic boundary the interface layer calls.
package application

import (
	"context"
	"time"

	"github.com/lectura-hub/progress-engine/internal/application/command"
	"github.com/lectura-hub/progress-engine/internal/application/query"
	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/progress"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// Clock supplies the current instant. Every time-sensitive computation runs
// off an injected clock so streak and window math is reproducible in tests.
type Clock func() time.Time

// Facade exposes the engine's three operations: record an attempt, fetch a
// daily score series, fetch the progress summary. It holds no mutable state;
// all data lives in the attempt store.
type Facade struct {
	recordAttempt *command.RecordAttemptHandler
	timeSeries    *query.GetTimeSeriesHandler
	summary       *query.GetSummaryHandler
}

// Option configures the Facade.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewFacade creates the application boundary over a store, an event
// publisher, and a bucketer bound to the configured timezone. The publisher
// may be nil when no subscribers are wired.
func NewFacade(store attempt.Store, publisher shared.EventPublisher, buckets *timeutil.Bucketer, opts ...Option) *Facade {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	clock := func() time.Time { return o.clock() }
	streaks := progress.NewCalculator(buckets)

	return &Facade{
		recordAttempt: command.NewRecordAttemptHandler(store, publisher, clock),
		timeSeries:    query.NewGetTimeSeriesHandler(store, buckets, clock),
		summary:       query.NewGetSummaryHandler(store, buckets, streaks, clock),
	}
}

// RecordAttempt ingests one exercise attempt.
func (f *Facade) RecordAttempt(ctx context.Context, cmd command.RecordAttemptCommand) (*command.RecordAttemptResult, error) {
	return f.recordAttempt.Handle(ctx, cmd)
}

// GetTimeSeries computes the daily score series for one category.
func (f *Facade) GetTimeSeries(ctx context.Context, q query.GetTimeSeriesQuery) (*query.GetTimeSeriesResult, error) {
	return f.timeSeries.Handle(ctx, q)
}

// GetSummary computes completion totals, streak, and week-over-week deltas.
func (f *Facade) GetSummary(ctx context.Context, q query.GetSummaryQuery) (*query.GetSummaryResult, error) {
	return f.summary.Handle(ctx, q)
}
