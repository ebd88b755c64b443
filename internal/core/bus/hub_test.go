// If you are AI: This file contains unit tests for hub fanout, ordering and subscriber lifecycle.

package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"roomlink/internal/core/protocol/rtmp"
)

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe(8, BackpressureDropOldest)
	b := hub.Subscribe(8, BackpressureDropOldest)

	if a.ID() == b.ID() {
		t.Fatal("Subscriber IDs must be unique")
	}
	if hub.SubscriberCount() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", hub.SubscriberCount())
	}

	hub.Unsubscribe(a.ID())
	if hub.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber after unsubscribe, got %d", hub.SubscriberCount())
	}

	hub.Publish(NewStatusEvent("primary", "connected", 0, nil))
	if _, ok := a.Queue().Pop(); ok {
		t.Error("Unsubscribed subscriber should not receive events")
	}
	if _, ok := b.Queue().Pop(); !ok {
		t.Error("Attached subscriber should receive events")
	}
}

func TestHubPreservesOrder(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(64, BackpressureDropNewest)

	for i := 0; i < 10; i++ {
		hub.Publish(NewMessageEvent("primary", "s1", rtmp.NewCommand("privmsg", i)))
	}

	var got []uint64
	n, err := sub.Process(100, func(ev *Event) error {
		got = append(got, ev.Seq)
		return nil
	})
	if err != nil || n != 10 {
		t.Fatalf("Expected 10 events, got %d (%v)", n, err)
	}
	for i, seq := range got {
		if seq != uint64(i+1) {
			t.Fatalf("Event %d: expected seq %d, got %d", i, i+1, seq)
		}
	}
	if hub.Published() != 10 {
		t.Errorf("Expected 10 published, got %d", hub.Published())
	}
}

func TestSubscriberReadySignal(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(8, BackpressureDropOldest)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Publish(NewStatusEvent("secondary", "reconnecting", time.Second, errors.New("eof")))
	}()

	select {
	case <-sub.Ready():
	case <-time.After(time.Second):
		t.Fatal("Subscriber was not signalled")
	}
	wg.Wait()

	ev, ok := sub.Queue().Pop()
	if !ok {
		t.Fatal("Expected buffered event after signal")
	}
	if ev.Kind != KindStatus || ev.State != "reconnecting" || ev.Err != "eof" || ev.Delay != time.Second {
		t.Errorf("Unexpected event %+v", ev)
	}
}

func TestSubscriberProcessStopsOnError(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(8, BackpressureDropOldest)
	for i := 0; i < 3; i++ {
		hub.Publish(NewStatusEvent("primary", "connected", 0, nil))
	}

	stop := errors.New("closed")
	n, err := sub.Process(10, func(*Event) error { return stop })
	if !errors.Is(err, stop) || n != 1 {
		t.Fatalf("Expected to stop after first event, got n=%d err=%v", n, err)
	}
	if sub.Queue().Len() != 2 {
		t.Errorf("Expected 2 events left in queue, got %d", sub.Queue().Len())
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe(4, BackpressureDropOldest)

	for i := 0; i < 100; i++ {
		hub.Publish(NewStatusEvent("primary", "connected", 0, nil))
	}
	if slow.Dropped() != 96 {
		t.Errorf("Expected 96 dropped, got %d", slow.Dropped())
	}
	ev, _ := slow.Queue().Pop()
	if ev.Seq != 97 {
		t.Errorf("Expected oldest retained seq 97, got %d", ev.Seq)
	}
}

func TestKindString(t *testing.T) {
	if KindMessage.String() != "message" || KindStatus.String() != "status" || Kind(9).String() != "unknown" {
		t.Error("Unexpected kind names")
	}
}
