package instrumentation

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Never record phone numbers, message IDs or subscription IDs as labels.

// StatusClass collapses an HTTP status code into its class.
//
// Example:
//
//	StatusClass(200)  // "2xx"
//	StatusClass(402)  // "4xx"
//	StatusClass(503)  // "5xx"
//	StatusClass(0)    // "none"
func StatusClass(statusCode int) string {
	switch {
	case statusCode >= 100 && statusCode < 200:
		return "1xx"
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	default:
		return "none"
	}
}

// SMS wait outcomes.
const (
	WaitOutcomeMatched  = "matched"
	WaitOutcomeTimedOut = "timed_out"
	WaitOutcomeError    = "error"
)

// Idempotency lookup results.
const (
	IdempotencyHit  = "hit"
	IdempotencyMiss = "miss"
)
