// If you are AI: This file implements the per-slot loop: connect, receive until failure, back off, re-resolve.

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roomlink/internal/core/protocol/rtmp"
)

// runner is the state of one running slot.
type runner struct {
	slot    Slot
	backoff *Backoff
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	state   State
	session *rtmp.Session
}

// startSlot launches the goroutine for slot unless one is already running.
func (m *Manager) startSlot(slot Slot, desc rtmp.Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if _, ok := m.slots[slot]; ok {
		return
	}

	base, ceiling := m.opts.BaseDelay, m.opts.MaxDelay
	if slot == SlotSecondary {
		base, ceiling = m.opts.SecondaryDelay, m.opts.SecondaryDelay
	}
	ctx, cancel := context.WithCancel(m.ctx)
	r := &runner{
		slot:    slot,
		backoff: NewBackoff(base, ceiling),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	m.slots[slot] = r

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(r.done)
		defer cancel()
		m.run(r, desc)

		m.mu.Lock()
		if m.slots[slot] == r {
			delete(m.slots, slot)
		}
		m.mu.Unlock()
	}()
}

// stopSlot cancels slot and waits for its goroutine to exit.
func (m *Manager) stopSlot(slot Slot) {
	m.mu.Lock()
	r := m.slots[slot]
	delete(m.slots, slot)
	m.mu.Unlock()
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// run drives one slot until its context is cancelled.
func (m *Manager) run(r *runner, desc rtmp.Descriptor) {
	log := m.log.With("slot", r.slot.String())
	attempts := 0
	for {
		sess := rtmp.NewSession(desc, m.sessionConfig(r.slot), m.opts.Dialer, log)
		m.setState(r, StateConnecting, sess.ID(), 0, nil)

		err := sess.Connect(r.ctx)
		if err == nil {
			r.backoff.Reset()
			r.setSession(sess)
			stop := context.AfterFunc(r.ctx, sess.Shutdown)
			if attempts > 0 && r.slot == SlotPrimary && m.opts.ResetUptime {
				m.resetUptime()
			}
			m.setState(r, StateConnected, sess.ID(), 0, nil)
			// Start already applied the first descriptor; reconnects bring a freshly resolved one.
			if attempts > 0 && r.slot == SlotPrimary {
				if err := m.syncSecondary(r.ctx, desc); err != nil {
					log.Warn("secondary session not started", "error", err)
				}
			}
			if desc.PublishName != "" {
				if err := sess.CreateStream(""); err != nil {
					log.Warn("create stream failed", "error", err)
				}
			}

			stopPing := m.startPing(r.ctx, sess, log)
			err = m.receive(r.ctx, r.slot, sess, sess.ID(), log)
			stop()
			sess.Shutdown()
			stopPing()
			r.setSession(nil)
		} else if r.ctx.Err() == nil {
			log.Warn("connect failed", "error", err)
		}
		attempts++

		next, ok := m.awaitReconnect(r, err, log)
		if !ok {
			m.setState(r, StateDisconnected, "", 0, nil)
			return
		}
		desc = next
	}
}

// awaitReconnect sleeps through the backoff and re-resolves the descriptor.
// It returns false when the slot should stop instead of reconnecting.
func (m *Manager) awaitReconnect(r *runner, cause error, log *slog.Logger) (rtmp.Descriptor, bool) {
	for {
		if r.ctx.Err() != nil {
			return rtmp.Descriptor{}, false
		}
		delay := r.backoff.Next()
		m.obs.Reconnect(r.slot.String())
		log.Warn("reconnecting", "delay", delay, "error", cause)
		m.setState(r, StateReconnecting, "", delay, cause)

		timer := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return rtmp.Descriptor{}, false
		case <-timer.C:
		}

		desc, err := m.resolver.Resolve(r.ctx, r.slot)
		if err != nil {
			cause = fmt.Errorf("%w: %s: %w", ErrResolve, r.slot, err)
			continue
		}
		if r.slot == SlotSecondary && !desc.RestrictedArea {
			log.Info("restricted area disabled, secondary session not restarted")
			return rtmp.Descriptor{}, false
		}
		return desc, true
	}
}

// startPing sends a ping request every PingInterval until the returned stop is called.
// Call stop only after the session is shut down, so a blocked write cannot hold it.
func (m *Manager) startPing(ctx context.Context, sess *rtmp.Session, log *slog.Logger) (stop func()) {
	if m.opts.PingInterval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sess.Ping(); err != nil {
					log.Debug("ping failed", "error", err)
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// receiver is the blocking read side of a session.
type receiver interface {
	Receive() (*rtmp.Message, error)
}

// receive dispatches messages in wire order until a hard failure, two consecutive
// read failures, or cancellation of ctx.
func (m *Manager) receive(ctx context.Context, slot Slot, src receiver, session string, log *slog.Logger) error {
	fails := 0
	for {
		msg, err := src.Receive()
		if err == nil {
			fails = 0
			m.obs.MessageReceived(slot.String(), msg.Type.String())
			if m.opts.Dispatcher != nil {
				m.opts.Dispatcher.Dispatch(slot, session, msg)
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if rtmp.IsHardFailure(err) {
			m.obs.ReadFailure(slot.String(), "hard")
			log.Error("session failed", "error", err)
			return err
		}
		fails++
		m.obs.ReadFailure(slot.String(), "transient")
		if fails >= maxConsecutiveFailures {
			log.Warn("read failed, giving up on session", "error", err, "failures", fails)
			return err
		}
		log.Warn("read failed, retrying", "error", err)
	}
}

// setSession publishes the connected session for callers.
func (r *runner) setSession(s *rtmp.Session) {
	r.mu.Lock()
	r.session = s
	r.mu.Unlock()
}

// sessionConfig returns the session settings for slot with control counting attached.
func (m *Manager) sessionConfig(slot Slot) rtmp.SessionConfig {
	cfg := m.opts.Session
	prev := cfg.OnControl
	label := slot.String()
	cfg.OnControl = func(t rtmp.MessageType) {
		m.obs.ControlHandled(label, t.String())
		if prev != nil {
			prev(t)
		}
	}
	return cfg
}

// setState records the transition and notifies observers.
func (m *Manager) setState(r *runner, st State, session string, delay time.Duration, err error) {
	r.mu.Lock()
	r.state = st
	r.mu.Unlock()

	m.obs.SetState(r.slot.String(), int(st))
	if st != StateReconnecting {
		m.log.Info("slot state changed", "slot", r.slot.String(), "state", st.String())
	}
	if m.opts.Notifier != nil {
		m.opts.Notifier.Notify(Event{Slot: r.slot, State: st, Session: session, Delay: delay, Err: err})
	}
}
