package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "progress_http_requests_total"
	MetricNameHTTPRequestDuration  = "progress_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "progress_http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "progress_events_published_total"
	MetricNameEventHandlerErrors = "progress_event_handler_errors_total"
)

// Business metric names
const (
	MetricNameAttemptsRecorded = "progress_attempts_recorded_total"
	MetricNameStoreErrors      = "progress_store_errors_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextAttemptsRecorded = "Total number of exercise attempts recorded"
	HelpTextStoreErrors      = "Total number of attempt store failures"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelCategory  = "category"
	LabelOperation = "operation"
)
