// If you are AI: This file tests the receive loop, startup and reconnection of a slot.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
)

func TestReceiveRetriesSingleFailureInPlace(t *testing.T) {
	obs := &countingObserver{}
	var got []string
	opts := testOptions(nil)
	opts.Observer = obs
	opts.Dispatcher = DispatcherFunc(func(slot Slot, session string, msg *rtmp.Message) {
		got = append(got, msg.CommandName())
	})
	m := NewManager(nil, opts)

	src := &scriptedReceiver{steps: []step{
		{msg: rtmp.NewCommand("a", 0, nil)},
		{err: io.ErrUnexpectedEOF},
		{msg: rtmp.NewCommand("b", 0, nil)},
		{err: io.EOF},
		{err: io.EOF},
		{msg: rtmp.NewCommand("never", 0, nil)},
	}}

	err := m.receive(context.Background(), SlotPrimary, src, "s", opts.Logger)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 3, obs.transient)
	assert.Equal(t, 2, obs.received)
}

func TestReceiveHardFailureEscalatesImmediately(t *testing.T) {
	obs := &countingObserver{}
	opts := testOptions(nil)
	opts.Observer = obs
	m := NewManager(nil, opts)

	src := &scriptedReceiver{steps: []step{
		{err: fmt.Errorf("%w: bad header", rtmp.ErrFraming)},
		{msg: rtmp.NewCommand("never", 0, nil)},
	}}

	err := m.receive(context.Background(), SlotPrimary, src, "s", opts.Logger)
	assert.ErrorIs(t, err, rtmp.ErrFraming)
	assert.Equal(t, 1, obs.hard)
	assert.Equal(t, 0, obs.transient)
	assert.Equal(t, 1, src.i)
}

func TestReceiveStopsOnCancel(t *testing.T) {
	m := NewManager(nil, testOptions(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedReceiver{steps: []step{{err: io.EOF}}}
	err := m.receive(ctx, SlotPrimary, src, "s", m.log)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartResolveFailureIsNotRetried(t *testing.T) {
	srv := newFakeServer(func(port, n int, r *rtmp.Reader, w *rtmp.Writer) {})
	boom := errors.New("api unavailable")
	var calls atomic.Int32
	resolver := ResolverFunc(func(ctx context.Context, slot Slot) (rtmp.Descriptor, error) {
		calls.Add(1)
		return rtmp.Descriptor{}, boom
	})
	m := NewManager(resolver, testOptions(srv))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolve)
	assert.ErrorIs(t, err, boom)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, srv.Dials(1))
	assert.Equal(t, StateDisconnected, m.State(SlotPrimary))
	assert.Zero(t, m.Uptime())
}

func TestStartDispatchesSurfacedMessages(t *testing.T) {
	srv := newFakeServer(func(port, n int, r *rtmp.Reader, w *rtmp.Writer) {
		status := amf0.Object{"level": "status", "code": rtmp.StatusConnectSuccess}
		if err := send(w, rtmp.NewCommand("_result", 1, nil, status)); err != nil {
			return
		}
		drain(r, nil)
	})
	got := make(chan *rtmp.Message, 4)
	opts := testOptions(srv)
	opts.Dispatcher = DispatcherFunc(func(slot Slot, session string, msg *rtmp.Message) {
		assert.Equal(t, SlotPrimary, slot)
		assert.NotEmpty(t, session)
		got <- msg
	})
	m := NewManager(&staticResolver{}, opts)

	require.NoError(t, m.Start(context.Background()))

	select {
	case msg := <-got:
		st, ok := rtmp.StatusOf(msg)
		require.True(t, ok)
		assert.Equal(t, rtmp.StatusConnectSuccess, st.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no message dispatched")
	}
	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)
	assert.Positive(t, m.Uptime())

	stopManager(t, m)
	assert.Equal(t, StateDisconnected, m.State(SlotPrimary))
	assert.Nil(t, m.Session(SlotPrimary))
}

func TestReconnectAfterPeerCloses(t *testing.T) {
	srv := newFakeServer(func(port, n int, r *rtmp.Reader, w *rtmp.Writer) {
		if n == 1 {
			return
		}
		drain(r, nil)
	})
	rec := &recorder{}
	obs := &countingObserver{}
	opts := testOptions(srv)
	opts.Notifier = rec
	opts.Observer = obs
	resolver := &staticResolver{}
	m := NewManager(resolver, opts)

	require.NoError(t, m.Start(context.Background()))
	defer stopManager(t, m)

	require.Eventually(t, func() bool {
		return len(rec.find(SlotPrimary, StateConnected)) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	reconnecting := rec.find(SlotPrimary, StateReconnecting)
	require.Len(t, reconnecting, 1)
	assert.Equal(t, opts.BaseDelay, reconnecting[0].Delay)
	assert.Error(t, reconnecting[0].Err)
	assert.Equal(t, 2, srv.Dials(1))
	assert.GreaterOrEqual(t, resolver.calls.Load(), int32(2))

	obs.mu.Lock()
	assert.Equal(t, 2, obs.transient)
	assert.Equal(t, 1, obs.reconnect)
	obs.mu.Unlock()
}

func TestReconnectOnControlViolation(t *testing.T) {
	srv := newFakeServer(func(port, n int, r *rtmp.Reader, w *rtmp.Writer) {
		if n == 1 {
			if err := send(w, rtmp.NewWindowAckSize(1)); err != nil {
				return
			}
		}
		drain(r, nil)
	})
	rec := &recorder{}
	opts := testOptions(srv)
	opts.Notifier = rec
	m := NewManager(&staticResolver{}, opts)

	require.NoError(t, m.Start(context.Background()))
	defer stopManager(t, m)

	require.Eventually(t, func() bool {
		return len(rec.find(SlotPrimary, StateConnected)) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	reconnecting := rec.find(SlotPrimary, StateReconnecting)
	require.NotEmpty(t, reconnecting)
	assert.ErrorIs(t, reconnecting[0].Err, rtmp.ErrControlViolation)
}

func TestBackoffGrowsWhileConnectFails(t *testing.T) {
	rec := &recorder{}
	opts := testOptions(failingDialer{})
	opts.Notifier = rec
	m := NewManager(&staticResolver{}, opts)

	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(rec.find(SlotPrimary, StateReconnecting)) >= 5
	}, 2*time.Second, 2*time.Millisecond)
	stopManager(t, m)

	delays := rec.find(SlotPrimary, StateReconnecting)
	want := []time.Duration{5, 10, 20, 40, 5}
	for i, w := range want {
		assert.Equal(t, w*time.Millisecond, delays[i].Delay, "attempt %d", i)
	}
}

func TestConnectedSessionSendsPeriodicPings(t *testing.T) {
	received := make(chan *rtmp.Message, 64)
	srv := newFakeServer(func(port, n int, r *rtmp.Reader, w *rtmp.Writer) {
		drain(r, received)
	})
	opts := testOptions(srv)
	opts.PingInterval = 5 * time.Millisecond
	m := NewManager(&staticResolver{}, opts)

	require.NoError(t, m.Start(context.Background()))
	defer stopManager(t, m)

	pings := 0
	timeout := time.After(2 * time.Second)
	for pings < 2 {
		select {
		case msg := <-received:
			if msg.Type == rtmp.TypeUserControl && msg.Event == rtmp.ControlPingRequest {
				pings++
			}
		case <-timeout:
			t.Fatalf("expected periodic pings, saw %d", pings)
		}
	}
}
