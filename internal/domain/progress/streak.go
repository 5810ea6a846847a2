// Package progress holds the pure analytics math over stored attempts:
// streak derivation and window comparisons that must stay independent of any
// storage technology.
package progress

import (
	"time"

	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// Calculator derives consecutive-active-day streaks in the configured timezone.
type Calculator struct {
	buckets *timeutil.Bucketer
}

// NewCalculator creates a Calculator bound to the given bucketer.
func NewCalculator(buckets *timeutil.Bucketer) *Calculator {
	return &Calculator{buckets: buckets}
}

// Streak counts the consecutive active calendar days ending at the date of
// `now`. The streak must include today to be nonzero: a learner who was
// active every day until yesterday has a streak of 0 today. The walk stops at
// the first gap; each iteration consumes one distinct key, so the cost is
// O(streak length), bounded by the caller's key cap.
func (c *Calculator) Streak(activeDayKeys []string, now time.Time) int {
	if len(activeDayKeys) == 0 {
		return 0
	}

	active := make(map[string]struct{}, len(activeDayKeys))
	for _, k := range activeDayKeys {
		active[k] = struct{}{}
	}

	key := c.buckets.DayKey(now)
	streak := 0
	for {
		if _, ok := active[key]; !ok {
			return streak
		}
		streak++

		prev, err := c.buckets.PreviousDayKey(key)
		if err != nil {
			return streak
		}
		key = prev
	}
}
