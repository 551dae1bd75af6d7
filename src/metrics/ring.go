package metrics

import (
	"mt5-bridge/src/models"
)

// -----------------------------------------------------------------------------
// EventRing is a fixed-size circular buffer of log events.
// True ring buffer - no resizing on the hot path; oldest entry evicted at
// capacity. Not internally synchronized: MetricsState owns the lock.
// -----------------------------------------------------------------------------

type EventRing struct {
	events   []models.MLogEvent
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewEventRing creates a new ring with fixed capacity
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = 20 // Default console panel size
	}

	return &EventRing{
		events:   make([]models.MLogEvent, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds one event, evicting the oldest when full
func (r *EventRing) Append(ev models.MLogEvent) {
	r.events[r.index] = ev
	r.index = (r.index + 1) % r.capacity

	// Update size (never exceeds capacity)
	if r.size < r.capacity {
		r.size++
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of all events in insertion order (oldest to newest)
func (r *EventRing) Snapshot() []models.MLogEvent {
	if r.size == 0 {
		return []models.MLogEvent{}
	}

	result := make([]models.MLogEvent, r.size)

	// Calculate start index (oldest element)
	var startIdx int
	if r.size == r.capacity {
		// Ring is full, oldest is at current index (wrap-around)
		startIdx = r.index
	} else {
		// Ring not full, oldest is at index 0
		startIdx = 0
	}

	for i := 0; i < r.size; i++ {
		result[i] = r.events[(startIdx+i)%r.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (r *EventRing) Size() int {
	return r.size
}

// -----------------------------------------------------------------------------

// Capacity returns ring capacity (fixed)
func (r *EventRing) Capacity() int {
	return r.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the ring
func (r *EventRing) Clear() {
	r.index = 0
	r.size = 0
}
