// If you are AI: This file contains unit tests for the subscriber event queue.

package bus

import (
	"sync"
	"testing"
)

// seqEvent returns an event carrying seq.
func seqEvent(seq uint64) *Event {
	return &Event{Seq: seq, Kind: KindMessage}
}

func TestEventQueueFIFO(t *testing.T) {
	q := NewEventQueue(4, BackpressureDropOldest)
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop should fail on an empty queue")
	}

	// several laps around the backing slice
	for i := uint64(1); i <= 20; i++ {
		if !q.Push(seqEvent(i)) {
			t.Fatalf("Push %d failed", i)
		}
		if i%3 == 0 {
			for q.Len() > 0 {
				q.Pop()
			}
		}
	}
	if q.Len() != 2 {
		t.Fatalf("Expected 2 queued, got %d", q.Len())
	}
	for _, want := range []uint64{19, 20} {
		ev, ok := q.Pop()
		if !ok || ev.Seq != want {
			t.Fatalf("Expected seq %d, got %+v", want, ev)
		}
	}
}

func TestEventQueueDropOldest(t *testing.T) {
	q := NewEventQueue(3, BackpressureDropOldest)
	for i := uint64(1); i <= 5; i++ {
		if !q.Push(seqEvent(i)) {
			t.Fatalf("Push %d should evict instead of failing", i)
		}
	}
	if q.Dropped() != 2 {
		t.Errorf("Expected 2 dropped, got %d", q.Dropped())
	}
	for _, want := range []uint64{3, 4, 5} {
		ev, ok := q.Pop()
		if !ok || ev.Seq != want {
			t.Fatalf("Expected seq %d, got %+v", want, ev)
		}
	}
}

func TestEventQueueDropNewest(t *testing.T) {
	q := NewEventQueue(2, BackpressureDropNewest)
	q.Push(seqEvent(1))
	q.Push(seqEvent(2))
	if q.Push(seqEvent(3)) {
		t.Error("Push into a full drop-newest queue should report the event as discarded")
	}
	if q.Dropped() != 1 {
		t.Errorf("Expected 1 dropped, got %d", q.Dropped())
	}
	ev, _ := q.Pop()
	if ev.Seq != 1 {
		t.Errorf("Expected seq 1 kept, got %d", ev.Seq)
	}
}

func TestEventQueueRejectsNilAndZeroCapacity(t *testing.T) {
	q := NewEventQueue(0, BackpressureDropOldest)
	if q.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", q.Cap())
	}
	if q.Push(nil) {
		t.Error("Push(nil) should be rejected")
	}
	if q.Len() != 0 || q.Dropped() != 0 {
		t.Error("nil push must not touch the queue")
	}
}

// TestEventQueueConcurrentDropOldestKeepsOrder overflows a small queue from the hub
// while a subscriber pops concurrently: every popped event must be newer than the last,
// and nothing may be lost without being counted.
func TestEventQueueConcurrentDropOldestKeepsOrder(t *testing.T) {
	const total = 20000
	hub := NewHub()
	sub := hub.Subscribe(4, BackpressureDropOldest)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			hub.Publish(seqEvent(0))
		}
	}()

	var popped, last uint64
	check := func(ev *Event) {
		if ev == nil {
			t.Fatal("Popped a nil event")
		}
		if ev.Seq <= last {
			t.Fatalf("Order broken: seq %d after %d", ev.Seq, last)
		}
		last = ev.Seq
		popped++
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		for {
			ev, ok := sub.Queue().Pop()
			if !ok {
				break
			}
			check(ev)
		}
	}

	if popped+sub.Dropped() != total {
		t.Fatalf("Expected popped+dropped=%d, got %d+%d", total, popped, sub.Dropped())
	}
	if last != total {
		t.Errorf("Expected the newest event %d to be delivered, last was %d", total, last)
	}
}
