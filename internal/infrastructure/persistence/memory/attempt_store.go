// Package memory implements the attempt store over an in-process slice.
// It backs the unit tests and dependency-free development runs; the math in
// the application layer must behave identically over this store and the
// PostgreSQL one.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// AttemptStore is an in-memory attempt.Store. Safe for concurrent use.
type AttemptStore struct {
	mu       sync.RWMutex
	buckets  *timeutil.Bucketer
	attempts []attempt.Attempt
}

// NewAttemptStore creates an empty store bucketing days in the given timezone.
func NewAttemptStore(buckets *timeutil.Bucketer) *AttemptStore {
	return &AttemptStore{buckets: buckets}
}

// Insert implements attempt.Store.
func (s *AttemptStore) Insert(_ context.Context, a *attempt.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutations cannot reach stored facts.
	s.attempts = append(s.attempts, *a)
	return nil
}

// Len returns the number of stored attempts.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// CountCompleted implements attempt.Store.
func (s *AttemptStore) CountCompleted(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.attempts {
		if s.attempts[i].UserID == userID && s.attempts[i].Completed {
			n++
		}
	}
	return n, nil
}

// DailyAveragePercent implements attempt.Store.
func (s *AttemptStore) DailyAveragePercent(_ context.Context, userID string, category *attempt.Category, start, end time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)

	for i := range s.attempts {
		a := &s.attempts[i]
		if !s.matches(a, userID, category, start, end) {
			continue
		}
		key := s.buckets.DayKey(a.CreatedAt)
		sums[key] += a.Percent()
		counts[key]++
	}

	averages := make(map[string]float64, len(sums))
	for key, sum := range sums {
		averages[key] = sum / float64(counts[key])
	}
	return averages, nil
}

// ActiveDayKeys implements attempt.Store.
func (s *AttemptStore) ActiveDayKeys(_ context.Context, userID string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for i := range s.attempts {
		a := &s.attempts[i]
		if a.UserID != userID || !a.Completed {
			continue
		}
		seen[s.buckets.DayKey(a.CreatedAt)] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	// Day keys sort lexicographically in chronological order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// AveragePercentInRange implements attempt.Store.
func (s *AttemptStore) AveragePercentInRange(_ context.Context, userID string, category *attempt.Category, start, end time.Time) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	var count int
	for i := range s.attempts {
		a := &s.attempts[i]
		if !s.matches(a, userID, category, start, end) {
			continue
		}
		sum += a.Percent()
		count++
	}

	if count == 0 {
		return nil, nil
	}
	avg := sum / float64(count)
	return &avg, nil
}

// matches applies the common completed-attempt filter over [start, end).
func (s *AttemptStore) matches(a *attempt.Attempt, userID string, category *attempt.Category, start, end time.Time) bool {
	if a.UserID != userID || !a.Completed {
		return false
	}
	if category != nil && a.Category != *category {
		return false
	}
	if a.CreatedAt.Before(start) || !a.CreatedAt.Before(end) {
		return false
	}
	return true
}
