package models

// MMetricsSnapshot is a copy-on-read view of the pipeline state, safe to hand
// to the console and REST readers without synchronization.
type MMetricsSnapshot struct {
	TotalRequests  int64       `json:"total_requests"`
	TotalErrors    int64       `json:"total_errors"`
	ActiveSessions int64       `json:"active_sessions"`
	Events         []MLogEvent `json:"events"`
}
