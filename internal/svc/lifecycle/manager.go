// If you are AI: This file implements the session lifecycle manager.
// It owns the slots, the refresh loop and the upward API; runner.go holds the per-slot loop.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
)

var (
	// ErrResolve wraps failures of the Resolver. Start surfaces it without retrying.
	ErrResolve = errors.New("lifecycle: resolve connection parameters")
	// ErrStopped is returned when starting a manager that was already stopped.
	ErrStopped = errors.New("lifecycle: manager stopped")
)

// maxConsecutiveFailures is the number of back-to-back read errors that tears a session down.
const maxConsecutiveFailures = 2

// Resolver produces the descriptor for a slot before every connection attempt.
type Resolver interface {
	Resolve(ctx context.Context, slot Slot) (rtmp.Descriptor, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, slot Slot) (rtmp.Descriptor, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, slot Slot) (rtmp.Descriptor, error) {
	return f(ctx, slot)
}

// Options configures a Manager.
type Options struct {
	Session rtmp.SessionConfig
	Dialer  rtmp.Dialer

	// BaseDelay and MaxDelay bound the primary reconnect schedule.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// SecondaryDelay is the fixed reconnect delay of the secondary slot.
	SecondaryDelay time.Duration
	// RefreshInterval re-resolves the primary descriptor to start or stop the secondary slot. Zero disables it.
	RefreshInterval time.Duration
	// ResetUptime restarts the uptime clock whenever the primary slot reconnects.
	ResetUptime bool
	// PingInterval spaces the ping requests sent on a connected session. Zero disables them.
	PingInterval time.Duration

	Dispatcher Dispatcher
	Notifier   Notifier
	Observer   Observer
	Logger     *slog.Logger
}

// DefaultOptions returns the reconnect policy used by the target server's own client.
func DefaultOptions() Options {
	return Options{
		Session:         rtmp.DefaultSessionConfig(),
		BaseDelay:       10 * time.Second,
		MaxDelay:        900 * time.Second,
		SecondaryDelay:  10 * time.Second,
		RefreshInterval: 360 * time.Second,
	}
}

// Manager owns the primary and secondary sessions.
type Manager struct {
	resolver Resolver
	opts     Options
	log      *slog.Logger
	obs      Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	slots    map[Slot]*runner
	initTime time.Time
	started  bool
	stopped  bool
}

// NewManager creates a manager. Nothing connects until Start.
func NewManager(resolver Resolver, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		resolver: resolver,
		opts:     opts,
		log:      opts.Logger,
		obs:      obs,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(map[Slot]*runner),
	}
}

// Start resolves the primary descriptor and brings the primary slot up in the background.
// A resolve failure is returned wrapped in ErrResolve and nothing is started.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.started {
		m.mu.Unlock()
		return errors.New("lifecycle: manager already started")
	}
	m.started = true
	m.mu.Unlock()

	desc, err := m.resolver.Resolve(ctx, SlotPrimary)
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrResolve, SlotPrimary, err)
	}
	m.resetUptime()

	m.startSlot(SlotPrimary, desc)
	if desc.RestrictedArea {
		if err := m.startSecondary(ctx); err != nil {
			m.log.Warn("secondary session not started", "error", err)
		}
	}

	if m.opts.RefreshInterval > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.RunRefresh(m.ctx)
		}()
	}
	return nil
}

// Stop disconnects every slot and waits for their goroutines, or for ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh re-resolves the primary descriptor and starts or stops the secondary slot to match RestrictedArea.
func (m *Manager) Refresh(ctx context.Context) error {
	desc, err := m.resolver.Resolve(ctx, SlotPrimary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResolve, SlotPrimary, err)
	}
	return m.syncSecondary(ctx, desc)
}

// syncSecondary starts or stops the secondary slot to match the primary descriptor's RestrictedArea.
func (m *Manager) syncSecondary(ctx context.Context, desc rtmp.Descriptor) error {
	running := m.running(SlotSecondary)
	switch {
	case desc.RestrictedArea && !running:
		return m.startSecondary(ctx)
	case !desc.RestrictedArea && running:
		m.log.Info("restricted area disabled, stopping secondary session")
		m.stopSlot(SlotSecondary)
	}
	return nil
}

// RunRefresh calls Refresh every RefreshInterval until ctx is done.
func (m *Manager) RunRefresh(ctx context.Context) {
	if m.opts.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				m.log.Warn("refresh failed", "error", err)
			}
		}
	}
}

// Call sends an application command on the slot's current session.
func (m *Manager) Call(slot Slot, name string, params ...amf0.Value) error {
	sess := m.Session(slot)
	if sess == nil {
		return fmt.Errorf("%s: %w", slot, rtmp.ErrNotConnected)
	}
	return sess.Call(name, sess.NextTransactionID(), params...)
}

// Session returns the slot's connected session, or nil.
func (m *Manager) Session(slot Slot) *rtmp.Session {
	m.mu.Lock()
	r := m.slots[slot]
	m.mu.Unlock()
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// State returns the slot's connection state.
func (m *Manager) State(slot Slot) State {
	m.mu.Lock()
	r := m.slots[slot]
	m.mu.Unlock()
	if r == nil {
		return StateDisconnected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsConnected reports whether the primary slot is connected.
func (m *Manager) IsConnected() bool {
	return m.State(SlotPrimary) == StateConnected
}

// Uptime returns the time since Start, or since the last primary reconnect when ResetUptime is set.
func (m *Manager) Uptime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initTime.IsZero() {
		return 0
	}
	return time.Since(m.initTime)
}

// startSecondary resolves the secondary descriptor and starts its slot.
func (m *Manager) startSecondary(ctx context.Context) error {
	desc, err := m.resolver.Resolve(ctx, SlotSecondary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResolve, SlotSecondary, err)
	}
	m.startSlot(SlotSecondary, desc)
	return nil
}

// running reports whether slot has a live goroutine.
func (m *Manager) running(slot Slot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[slot]
	return ok
}

// resetUptime restarts the uptime clock.
func (m *Manager) resetUptime() {
	m.mu.Lock()
	m.initTime = time.Now()
	m.mu.Unlock()
}
