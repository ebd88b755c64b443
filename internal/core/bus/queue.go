// If you are AI: This file implements the bounded event queue behind each subscriber.
// The hub pushes while the subscriber goroutine pops; both sides take the same lock, so a
// drop-oldest overflow can never interleave with a pop and reorder or skip events.

package bus

import "sync"

// BackpressureStrategy defines what a full queue does with a new event.
type BackpressureStrategy uint8

const (
	// BackpressureDropOldest evicts the oldest queued event to make room.
	BackpressureDropOldest BackpressureStrategy = iota
	// BackpressureDropNewest discards the incoming event.
	BackpressureDropNewest
)

// EventQueue is a fixed-capacity FIFO of events.
// Every event that is popped has a higher Seq than the one popped before it.
type EventQueue struct {
	mu       sync.Mutex
	slots    []*Event
	head     int // index of the oldest event
	count    int
	strategy BackpressureStrategy
	dropped  uint64
}

// NewEventQueue creates a queue holding at most capacity events (minimum 1).
func NewEventQueue(capacity uint32, strategy BackpressureStrategy) *EventQueue {
	if capacity == 0 {
		capacity = 1
	}
	return &EventQueue{
		slots:    make([]*Event, capacity),
		strategy: strategy,
	}
}

// Push appends ev. It returns false when ev itself was discarded.
func (q *EventQueue) Push(ev *Event) bool {
	if ev == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.slots) {
		q.dropped++
		if q.strategy == BackpressureDropNewest {
			return false
		}
		q.slots[q.head] = nil
		q.head = (q.head + 1) % len(q.slots)
		q.count--
	}
	q.slots[(q.head+q.count)%len(q.slots)] = ev
	q.count++
	return true
}

// Pop removes and returns the oldest event.
func (q *EventQueue) Pop() (*Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil, false
	}
	ev := q.slots[q.head]
	q.slots[q.head] = nil
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	return ev, true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *EventQueue) Cap() int {
	return len(q.slots)
}

// Dropped returns how many events were lost to backpressure.
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
