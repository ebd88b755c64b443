// If you are AI: This file holds the in-process fake RTMP server and recorders shared by the lifecycle tests.
package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomlink/internal/core/protocol/rtmp"
)

// fakeServer is an rtmp.Dialer whose connections are served in-process over net.Pipe.
type fakeServer struct {
	mu    sync.Mutex
	dials map[int]int

	// script runs after the handshake and the connect command. n counts dials per port, from 1.
	script func(port, n int, r *rtmp.Reader, w *rtmp.Writer)
}

func newFakeServer(script func(port, n int, r *rtmp.Reader, w *rtmp.Writer)) *fakeServer {
	return &fakeServer{dials: make(map[int]int), script: script}
}

func (f *fakeServer) Dial(ctx context.Context, addr, proxy string) (net.Conn, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.dials[port]++
	n := f.dials[port]
	f.mu.Unlock()

	client, server := net.Pipe()
	go f.serve(port, n, server)
	return client, nil
}

func (f *fakeServer) Dials(port int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials[port]
}

func (f *fakeServer) serve(port, n int, conn net.Conn) {
	defer conn.Close()
	if err := acceptHandshake(conn); err != nil {
		return
	}
	r := rtmp.NewReader(conn)
	if _, err := r.Next(); err != nil {
		return
	}
	f.script(port, n, r, rtmp.NewWriter(conn, rtmp.DefaultRoutePolicy()))
}

// acceptHandshake runs the server side of the handshake.
func acceptHandshake(conn net.Conn) error {
	c0c1 := make([]byte, 1+rtmp.HandshakeSize)
	if _, err := io.ReadFull(conn, c0c1); err != nil {
		return err
	}
	s0s1 := make([]byte, 1+rtmp.HandshakeSize)
	s0s1[0] = rtmp.RTMPVersion
	if _, err := conn.Write(s0s1); err != nil {
		return err
	}
	c2 := make([]byte, rtmp.HandshakeSize)
	if _, err := io.ReadFull(conn, c2); err != nil {
		return err
	}
	_, err := conn.Write(c0c1[1:])
	return err
}

// drain keeps reading until the client goes away, forwarding messages to out when non-nil.
func drain(r *rtmp.Reader, out chan<- *rtmp.Message) {
	for {
		msg, err := r.Next()
		if err != nil {
			return
		}
		if out != nil {
			out <- msg
		}
	}
}

func send(w *rtmp.Writer, msg *rtmp.Message) error {
	if err := w.Write(msg); err != nil {
		return err
	}
	return w.Flush()
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) find(slot Slot, state State) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Slot == slot && ev.State == state {
			out = append(out, ev)
		}
	}
	return out
}

type countingObserver struct {
	mu        sync.Mutex
	received  int
	control   int
	transient int
	hard      int
	reconnect int
}

func (o *countingObserver) MessageReceived(string, string) {
	o.mu.Lock()
	o.received++
	o.mu.Unlock()
}

func (o *countingObserver) ControlHandled(string, string) {
	o.mu.Lock()
	o.control++
	o.mu.Unlock()
}

func (o *countingObserver) ReadFailure(_, class string) {
	o.mu.Lock()
	if class == "hard" {
		o.hard++
	} else {
		o.transient++
	}
	o.mu.Unlock()
}

func (o *countingObserver) Reconnect(string) {
	o.mu.Lock()
	o.reconnect++
	o.mu.Unlock()
}

func (o *countingObserver) SetState(string, int) {}

func testOptions(d rtmp.Dialer) Options {
	opts := DefaultOptions()
	opts.Dialer = d
	opts.BaseDelay = 5 * time.Millisecond
	opts.MaxDelay = 40 * time.Millisecond
	opts.SecondaryDelay = 5 * time.Millisecond
	opts.RefreshInterval = 0
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

// staticResolver resolves the primary slot to port 1 and the secondary to port 2.
type staticResolver struct {
	restricted atomic.Bool
	calls      atomic.Int32
}

func (s *staticResolver) Resolve(ctx context.Context, slot Slot) (rtmp.Descriptor, error) {
	s.calls.Add(1)
	port := 1
	if slot == SlotSecondary {
		port = 2
	}
	return rtmp.Descriptor{
		IP:             "127.0.0.1",
		Port:           port,
		App:            "room",
		RestrictedArea: s.restricted.Load(),
	}, nil
}

func stopManager(t *testing.T, m *Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))
}

type step struct {
	msg *rtmp.Message
	err error
}

type scriptedReceiver struct {
	steps []step
	i     int
}

func (s *scriptedReceiver) Receive() (*rtmp.Message, error) {
	if s.i >= len(s.steps) {
		return nil, io.EOF
	}
	st := s.steps[s.i]
	s.i++
	return st.msg, st.err
}
