package attempt

import (
	"context"
	"time"
)

// Store is the persistence contract the analytics queries are computed over.
// The store owns all persisted attempts; aggregation code holds no state of
// its own. Implementations surface infrastructure failures as
// shared.ErrStoreUnavailable so callers can apply their own retry policy.
//
// All instant ranges are half-open: [start, end). Day grouping happens in the
// store's configured timezone, never UTC.
type Store interface {
	// Insert persists a new attempt. Attempts are append-only facts; there is
	// no update or delete path.
	Insert(ctx context.Context, a *Attempt) error

	// CountCompleted returns the all-time count of completed attempts for a user.
	CountCompleted(ctx context.Context, userID string) (int64, error)

	// DailyAveragePercent returns the average percent score per civil day for
	// completed attempts with CreatedAt in [start, end). A nil category means
	// all categories combined. Days without attempts are absent from the map.
	DailyAveragePercent(ctx context.Context, userID string, category *Category, start, end time.Time) (map[string]float64, error)

	// ActiveDayKeys returns the distinct civil days on which the user has at
	// least one completed attempt, most recent first, capped at limit.
	ActiveDayKeys(ctx context.Context, userID string, limit int) ([]string, error)

	// AveragePercentInRange returns the flat average percent score over all
	// matching completed attempts in [start, end), or nil when there is no
	// data. A nil category means all categories combined.
	AveragePercentInRange(ctx context.Context, userID string, category *Category, start, end time.Time) (*float64, error)
}
