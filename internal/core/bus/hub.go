// If you are AI: This file implements the Hub, the fan-out point for surfaced messages and status events.
// Publishing never blocks: each subscriber owns a bounded queue.

package bus

import (
	"sync"
)

// Hub delivers events to every attached subscriber in publish order.
// Lock expectations: publishers are serialized by mu so every queue sees events in Seq order.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscriber
	nextSubID   uint64
	seq         uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint64]*Subscriber),
		nextSubID:   1,
	}
}

// Subscribe attaches a new subscriber.
func (h *Hub) Subscribe(capacity uint32, strategy BackpressureStrategy) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++

	sub := NewSubscriber(id, capacity, strategy)
	h.subscribers[id] = sub
	return sub
}

// Unsubscribe detaches a subscriber.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, id)
}

// Publish stamps ev with the next sequence number and delivers it to all subscribers.
// Events published from one goroutine are observed in the same order by every subscriber.
func (h *Hub) Publish(ev *Event) {
	if ev == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev.Seq = h.seq
	for _, sub := range h.subscribers {
		sub.deliver(ev)
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Published returns the number of events published so far.
func (h *Hub) Published() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}
