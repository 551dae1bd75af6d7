package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"mt5-bridge/src/models"
)

func TestRecordCountsRequestsAndErrors(t *testing.T) {
	s := NewMetricsState(20)

	s.Record("get_account", OutcomeOK, time.Millisecond)
	s.Record("get_tick", OutcomeOK, time.Millisecond)
	s.Record("submit_order", OutcomeValidation, time.Millisecond)
	s.Record("get_account", OutcomePlatform, time.Millisecond)
	s.Record("submit_order", OutcomeTradeRejected, time.Millisecond)

	snap := s.Snapshot()
	if snap.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want 5", snap.TotalRequests)
	}
	if snap.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", snap.TotalErrors)
	}
}

func TestErrorsNeverExceedRequests(t *testing.T) {
	s := NewMetricsState(20)

	outcomes := []Outcome{OutcomeOK, OutcomeValidation, OutcomeMarshalling, OutcomeConnection}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Record("get_positions", outcomes[i%len(outcomes)], time.Millisecond)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.TotalRequests != 100 {
		t.Errorf("TotalRequests = %d, want 100", snap.TotalRequests)
	}
	if snap.TotalErrors > snap.TotalRequests {
		t.Errorf("TotalErrors %d > TotalRequests %d", snap.TotalErrors, snap.TotalRequests)
	}
}

// -----------------------------------------------------------------------------

func TestRingEvictsOldest(t *testing.T) {
	s := NewMetricsState(20)

	for i := 0; i < 25; i++ {
		s.Log(models.SevInfo, "event %d", i)
	}

	snap := s.Snapshot()
	if len(snap.Events) != 20 {
		t.Fatalf("len(Events) = %d, want 20", len(snap.Events))
	}
	if snap.Events[0].Message != "event 5" {
		t.Errorf("oldest = %q, want \"event 5\"", snap.Events[0].Message)
	}
	if snap.Events[19].Message != "event 24" {
		t.Errorf("newest = %q, want \"event 24\"", snap.Events[19].Message)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewMetricsState(20)
	s.Log(models.SevInfo, "first")

	snap := s.Snapshot()
	snap.Events[0].Message = "mutated"

	if s.Snapshot().Events[0].Message != "first" {
		t.Error("mutating a snapshot must not affect pipeline state")
	}
}

// -----------------------------------------------------------------------------

func TestEventRing(t *testing.T) {
	r := NewEventRing(3)

	if r.Capacity() != 3 || r.Size() != 0 {
		t.Fatalf("fresh ring: cap %d size %d", r.Capacity(), r.Size())
	}
	if got := r.Snapshot(); len(got) != 0 {
		t.Errorf("empty ring snapshot len = %d", len(got))
	}

	for i := 0; i < 5; i++ {
		r.Append(models.MLogEvent{Message: fmt.Sprintf("%d", i)})
	}
	if r.Size() != 3 {
		t.Errorf("Size = %d, want 3", r.Size())
	}

	got := r.Snapshot()
	want := []string{"2", "3", "4"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("Snapshot()[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

// -----------------------------------------------------------------------------

func TestSessionAccounting(t *testing.T) {
	s := NewMetricsState(20)

	s.SessionOpened()
	s.SessionOpened()
	if n := s.SessionClosed(); n != 1 {
		t.Errorf("active after close = %d, want 1", n)
	}
	s.SessionClosed()

	// A duplicate close never drives the count negative.
	if n := s.SessionClosed(); n != 0 {
		t.Errorf("active = %d, want 0", n)
	}
}

// -----------------------------------------------------------------------------

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    models.Severity
	}{
		{OutcomeOK, models.SevOK},
		{OutcomeTradeRejected, models.SevFail},
		{OutcomeValidation, models.SevFail},
		{OutcomePlatform, models.SevErr},
		{OutcomeMarshalling, models.SevErr},
		{OutcomeConnection, models.SevErr},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.outcome); got != tt.want {
			t.Errorf("SeverityFor(%s) = %s, want %s", tt.outcome, got, tt.want)
		}
	}
}

func TestRoundMs(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want float64
	}{
		{1500 * time.Microsecond, 1.5},
		{1549 * time.Microsecond, 1.5},
		{1550 * time.Microsecond, 1.6},
		{0, 0.0},
		{2 * time.Second, 2000.0},
	}
	for _, tt := range tests {
		if got := RoundMs(tt.d); got != tt.want {
			t.Errorf("RoundMs(%v) = %g, want %g", tt.d, got, tt.want)
		}
	}
}
