package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectura-hub/progress-engine/internal/application"
	"github.com/lectura-hub/progress-engine/internal/infrastructure/persistence/memory"
	"github.com/lectura-hub/progress-engine/pkg/timeutil"
)

var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	buckets := timeutil.NewBucketer(time.UTC)
	store := memory.NewAttemptStore(buckets)
	app := application.NewFacade(store, nil, buckets, application.WithClock(func() time.Time { return testNow }))

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // not under test
	cfg.EnableMetrics = false

	return NewServer(cfg, Dependencies{App: app})
}

func doRequest(t *testing.T, s *Server, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func recordAttempt(t *testing.T, s *Server, userID string, body map[string]interface{}) {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/v1/progress/attempts", userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRecordAttemptEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/progress/attempts", "u1", map[string]interface{}{
		"category":     "reading",
		"exerciseType": "syllable-match",
		"score":        8,
		"maxScore":     10,
		"completed":    true,
		"durationMs":   5200,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["attemptId"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRecordAttemptValidationError(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/progress/attempts", "u1", map[string]interface{}{
		"category":     "algebra",
		"exerciseType": "drill",
		"score":        8,
		"maxScore":     10,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "category", resp.Error.Details)
}

func TestRecordAttemptBadJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/progress/attempts", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_json", resp.Error.Code)
}

func TestMissingUserIDRejected(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/progress/attempts"},
		{http.MethodGet, "/api/v1/progress/timeseries?category=reading"},
		{http.MethodGet, "/api/v1/progress/summary"},
	} {
		rec := doRequest(t, s, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestTimeSeriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	recordAttempt(t, s, "u1", map[string]interface{}{
		"category":     "reading",
		"exerciseType": "syllable-match",
		"score":        8,
		"maxScore":     10,
		"completed":    true,
		"durationMs":   5200,
	})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/progress/timeseries?category=reading&days=7", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Category string `json:"category"`
			Days     int    `json:"days"`
			Data     []struct {
				Date  string `json:"date"`
				Score int    `json:"score"`
			} `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "reading", resp.Data.Category)
	assert.Equal(t, 7, resp.Data.Days)
	require.Len(t, resp.Data.Data, 7)
	assert.Equal(t, "2024-05-10", resp.Data.Data[6].Date)
	assert.Equal(t, 80, resp.Data.Data[6].Score)
	assert.Equal(t, 0, resp.Data.Data[0].Score)
}

func TestTimeSeriesDefaultLocaleFromConfig(t *testing.T) {
	buckets := timeutil.NewBucketer(time.UTC)
	store := memory.NewAttemptStore(buckets)
	app := application.NewFacade(store, nil, buckets, application.WithClock(func() time.Time { return testNow }))

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.EnableMetrics = false
	cfg.DefaultLocale = "en"
	s := NewServer(cfg, Dependencies{App: app})

	seriesLabels := func(rawQuery string) []string {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/progress/timeseries?"+rawQuery, "u1", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data struct {
				Data []struct {
					Label string `json:"label"`
				} `json:"data"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		labels := make([]string, len(resp.Data.Data))
		for i, p := range resp.Data.Data {
			labels[i] = p.Label
		}
		return labels
	}

	// No locale param: the configured default applies (English, month first).
	labels := seriesLabels("category=reading&days=1")
	require.Len(t, labels, 1)
	assert.Equal(t, "5/10/2024", labels[0])

	// An explicit locale still wins over the default.
	labels = seriesLabels("category=reading&days=1&locale=es")
	require.Len(t, labels, 1)
	assert.Equal(t, "10/5/2024", labels[0])
}

func TestTimeSeriesUnknownCategory(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/progress/timeseries?category=algebra", "u1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	recordAttempt(t, s, "u1", map[string]interface{}{
		"category":     "reading",
		"exerciseType": "syllable-match",
		"score":        8,
		"maxScore":     10,
		"completed":    true,
		"durationMs":   5200,
	})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/progress/summary", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			CompletedExercises int    `json:"completedExercises"`
			StreakDays         int    `json:"streakDays"`
			OverallImprovement int    `json:"overallImprovement"`
			BestCategory       string `json:"bestCategory"`
			PerCategory        map[string]struct {
				Last7Avg int `json:"last7Avg"`
				Prev7Avg int `json:"prev7Avg"`
				Delta    int `json:"delta"`
			} `json:"perCategory"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Data.CompletedExercises)
	assert.Equal(t, 1, resp.Data.StreakDays)
	assert.Equal(t, 80, resp.Data.OverallImprovement)
	assert.Equal(t, "reading", resp.Data.BestCategory)
	assert.Equal(t, 80, resp.Data.PerCategory["reading"].Last7Avg)
	assert.Equal(t, 80, resp.Data.PerCategory["reading"].Delta)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		rec := doRequest(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadinessFailsWhenStoreDown(t *testing.T) {
	buckets := timeutil.NewBucketer(time.UTC)
	store := memory.NewAttemptStore(buckets)
	app := application.NewFacade(store, nil, buckets)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.EnableMetrics = false
	s := NewServer(cfg, Dependencies{App: app, HealthChecker: failingChecker{}})

	rec := doRequest(t, s, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type failingChecker struct{}

func (failingChecker) Ping(ctx context.Context) error { return fmt.Errorf("connection refused") }
