// If you are AI: This file defines the Subscriber type.
// Subscribers receive events from the hub via a bounded queue and a wake-up signal.

package bus

// Subscriber represents a consumer of events from the hub.
// Each subscriber has its own queue so a slow observer never blocks a session's receive loop.
type Subscriber struct {
	id    uint64        // Unique subscriber ID
	queue *EventQueue   // Bounded queue for event delivery
	ready chan struct{} // Signalled after each push, capacity 1
}

// NewSubscriber creates a new subscriber with the specified buffer capacity and strategy.
func NewSubscriber(id uint64, capacity uint32, strategy BackpressureStrategy) *Subscriber {
	return &Subscriber{
		id:    id,
		queue: NewEventQueue(capacity, strategy),
		ready: make(chan struct{}, 1),
	}
}

// ID returns the unique subscriber identifier.
func (s *Subscriber) ID() uint64 {
	return s.id
}

// Queue returns the subscriber's event queue.
func (s *Subscriber) Queue() *EventQueue {
	return s.queue
}

// Ready returns a channel that receives a value whenever new events may be queued.
// Signals coalesce; drain the queue fully after each wake-up.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// deliver writes ev and wakes the consumer without blocking.
func (s *Subscriber) deliver(ev *Event) {
	s.queue.Push(ev)
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Process pops up to maxEvents queued events and passes them to handle in order.
// Returns the number of events processed.
func (s *Subscriber) Process(maxEvents int, handle func(*Event) error) (int, error) {
	processed := 0
	for i := 0; i < maxEvents; i++ {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		processed++
		if err := handle(ev); err != nil {
			return processed, err
		}
	}
	return processed, nil
}

// Dropped returns the number of events dropped due to backpressure.
func (s *Subscriber) Dropped() uint64 {
	return s.queue.Dropped()
}
