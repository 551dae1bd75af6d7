package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"

	"mt5-bridge/src/models"
)

// -----------------------------------------------------------------------------
// Request Outcomes
// -----------------------------------------------------------------------------

type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeTradeRejected Outcome = "trade_rejected"
	OutcomeValidation    Outcome = "validation_failure"
	OutcomePlatform      Outcome = "platform_unavailable"
	OutcomeMarshalling   Outcome = "marshalling_failure"
	OutcomeConnection    Outcome = "connection_error"
)

// IsError reports whether the outcome counts toward total_errors. A rejected
// trade is not a bridge failure but still counts as an errored request.
func (o Outcome) IsError() bool {
	return o != OutcomeOK
}

// -----------------------------------------------------------------------------

// SeverityFor maps an outcome to its deterministic log severity.
func SeverityFor(o Outcome) models.Severity {
	switch o {
	case OutcomeOK:
		return models.SevOK
	case OutcomeTradeRejected, OutcomeValidation:
		return models.SevFail
	default:
		return models.SevErr
	}
}

// -----------------------------------------------------------------------------

// RoundMs converts a duration to milliseconds rounded to one decimal.
func RoundMs(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000.0
	return math.Round(ms*10) / 10
}

// -----------------------------------------------------------------------------
// MetricsState
//
// Process-wide counters plus the bounded log ring. Mutation is mutex-guarded
// across session goroutines; readers get copy-on-read snapshots and never
// block a writer for long.
// -----------------------------------------------------------------------------

type MetricsState struct {
	mu             sync.Mutex
	totalRequests  int64
	totalErrors    int64
	activeSessions int64
	ring           *EventRing
}

// -----------------------------------------------------------------------------

func NewMetricsState(ringCapacity int) *MetricsState {
	return &MetricsState{
		ring: NewEventRing(ringCapacity),
	}
}

// -----------------------------------------------------------------------------

// Record registers one dispatched request outcome: counters, one ring entry
// with deterministic severity, and the prometheus mirrors.
func (s *MetricsState) Record(capability string, outcome Outcome, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	if outcome.IsError() {
		s.totalErrors++
	}

	s.ring.Append(models.MLogEvent{
		Timestamp: time.Now().Unix(),
		Severity:  SeverityFor(outcome),
		Message:   fmt.Sprintf("%s %s (%.1fms)", capability, outcome, RoundMs(elapsed)),
	})

	observeRequest(capability, outcome, elapsed)
}

// -----------------------------------------------------------------------------

// Log appends a free-form ring entry (connect/disconnect, dispatch entry,
// history skips). Counters are untouched.
func (s *MetricsState) Log(sev models.Severity, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring.Append(models.MLogEvent{
		Timestamp: time.Now().Unix(),
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}

// -----------------------------------------------------------------------------
// Session accounting
// -----------------------------------------------------------------------------

func (s *MetricsState) SessionOpened() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeSessions++
	setActiveSessions(s.activeSessions)
	return s.activeSessions
}

// SessionClosed decrements the active count, clamped at zero: an abrupt
// disconnect can race an explicit close.
func (s *MetricsState) SessionClosed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeSessions > 0 {
		s.activeSessions--
	}
	setActiveSessions(s.activeSessions)
	return s.activeSessions
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the pipeline state for console/REST readers.
func (s *MetricsState) Snapshot() models.MMetricsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.MMetricsSnapshot{
		TotalRequests:  s.totalRequests,
		TotalErrors:    s.totalErrors,
		ActiveSessions: s.activeSessions,
		Events:         s.ring.Snapshot(),
	}
}
