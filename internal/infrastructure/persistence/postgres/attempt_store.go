package postgres

import (
	"context"
	"time"

	"github.com/lectura-hub/progress-engine/internal/domain/attempt"
	"github.com/lectura-hub/progress-engine/internal/domain/shared"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/metrics"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT REPOSITORY
// Day bucketing is pushed into SQL: created_at AT TIME ZONE <tz> groups rows
// by the same civil day the in-process bucketer would pick, so series and
// streak math never disagree between store implementations.
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements attempt.Store over PostgreSQL.
type AttemptRepository struct {
	conn *Connection
	tz   string
}

// NewAttemptRepository creates a repository bucketing days in the bucketer's
// timezone.
func NewAttemptRepository(conn *Connection, buckets *timeutil.Bucketer) *AttemptRepository {
	return &AttemptRepository{
		conn: conn,
		tz:   buckets.Location().String(),
	}
}

// Insert implements attempt.Store.
func (r *AttemptRepository) Insert(ctx context.Context, a *attempt.Attempt) error {
	query := `
		INSERT INTO exercise_attempts
			(id, user_id, category, exercise_type, exercise_id, score, max_score, completed, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID,
		a.UserID,
		string(a.Category),
		a.ExerciseType,
		a.ExerciseID,
		a.Score,
		a.MaxScore,
		a.Completed,
		a.DurationMs,
		a.CreatedAt,
	)
	if err != nil {
		return insertError(err)
	}
	return nil
}

// CountCompleted implements attempt.Store.
func (r *AttemptRepository) CountCompleted(ctx context.Context, userID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM exercise_attempts
		WHERE user_id = $1 AND completed = TRUE
	`

	var n int64
	if err := r.conn.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, storeError("CountCompleted", err)
	}
	return n, nil
}

// DailyAveragePercent implements attempt.Store.
func (r *AttemptRepository) DailyAveragePercent(ctx context.Context, userID string, category *attempt.Category, start, end time.Time) (map[string]float64, error) {
	query := `
		SELECT
			to_char(created_at AT TIME ZONE $4, 'YYYY-MM-DD') AS day_key,
			AVG(score * 100.0 / max_score) AS avg_percent
		FROM exercise_attempts
		WHERE user_id = $1
		  AND completed = TRUE
		  AND created_at >= $2 AND created_at < $3
		  AND ($5::text IS NULL OR category = $5)
		GROUP BY day_key
	`

	rows, err := r.conn.Query(ctx, query, userID, start, end, r.tz, categoryArg(category))
	if err != nil {
		return nil, storeError("DailyAveragePercent", err)
	}
	defer rows.Close()

	averages := make(map[string]float64)
	for rows.Next() {
		var key string
		var avg float64
		if err := rows.Scan(&key, &avg); err != nil {
			return nil, storeError("DailyAveragePercent", err)
		}
		averages[key] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("DailyAveragePercent", err)
	}
	return averages, nil
}

// ActiveDayKeys implements attempt.Store.
func (r *AttemptRepository) ActiveDayKeys(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day_key
		FROM exercise_attempts
		WHERE user_id = $1 AND completed = TRUE
		ORDER BY day_key DESC
		LIMIT $3
	`

	rows, err := r.conn.Query(ctx, query, userID, r.tz, limit)
	if err != nil {
		return nil, storeError("ActiveDayKeys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, storeError("ActiveDayKeys", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("ActiveDayKeys", err)
	}
	return keys, nil
}

// AveragePercentInRange implements attempt.Store.
func (r *AttemptRepository) AveragePercentInRange(ctx context.Context, userID string, category *attempt.Category, start, end time.Time) (*float64, error) {
	query := `
		SELECT AVG(score * 100.0 / max_score)
		FROM exercise_attempts
		WHERE user_id = $1
		  AND completed = TRUE
		  AND created_at >= $2 AND created_at < $3
		  AND ($4::text IS NULL OR category = $4)
	`

	// AVG over zero rows is NULL, which maps to "no data" rather than zero.
	var avg *float64
	if err := r.conn.QueryRow(ctx, query, userID, start, end, categoryArg(category)).Scan(&avg); err != nil {
		return nil, storeError("AveragePercentInRange", err)
	}
	return avg, nil
}

// insertError classifies an Insert failure. A constraint violation means the
// row itself is bad (caller's fault, not retryable); anything else is a store
// outage.
func insertError(err error) error {
	if IsCheckViolation(err) || IsNotNullViolation(err) || IsUniqueViolation(err) {
		return shared.WrapError("attempt", "Insert", shared.ErrInvalidInput, "attempt violates storage constraints", err)
	}
	return storeError("Insert", err)
}

// storeError records the failure and wraps it for the caller.
func storeError(op string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return shared.StoreUnavailable("attempt", op, err)
}

// categoryArg converts the optional category filter to a nullable SQL arg.
func categoryArg(category *attempt.Category) *string {
	if category == nil {
		return nil
	}
	s := string(*category)
	return &s
}
