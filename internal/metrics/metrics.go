// If you are AI: This file defines the prometheus collectors for sessions and the lifecycle manager.
// Collectors are registered on a caller-supplied registry so tests can use a private one.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roomlink"

// Metrics holds every collector the process exports.
type Metrics struct {
	messagesReceived *prometheus.CounterVec
	controlHandled   *prometheus.CounterVec
	readFailures     *prometheus.CounterVec
	reconnects       *prometheus.CounterVec
	slotState        *prometheus.GaugeVec
	eventsDropped    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages surfaced by sessions, by slot and message type",
		}, []string{"slot", "type"}),

		controlHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_messages_total",
			Help:      "Control messages consumed by the session control handler",
		}, []string{"slot", "type"}),

		readFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_failures_total",
			Help:      "Session read failures, by slot and class (transient or hard)",
		}, []string{"slot", "class"}),

		reconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect attempts scheduled, by slot",
		}, []string{"slot"}),

		slotState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slot_state",
			Help:      "Current slot state: 0 disconnected, 1 connecting, 2 connected, 3 reconnecting",
		}, []string{"slot"}),

		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped by slow event stream subscribers",
		}),
	}
}

// MessageReceived counts a surfaced message.
func (m *Metrics) MessageReceived(slot, msgType string) {
	m.messagesReceived.WithLabelValues(slot, msgType).Inc()
}

// ControlHandled counts a consumed control message.
func (m *Metrics) ControlHandled(slot, msgType string) {
	m.controlHandled.WithLabelValues(slot, msgType).Inc()
}

// ReadFailure counts a failed read.
func (m *Metrics) ReadFailure(slot, class string) {
	m.readFailures.WithLabelValues(slot, class).Inc()
}

// Reconnect counts a scheduled reconnect.
func (m *Metrics) Reconnect(slot string) {
	m.reconnects.WithLabelValues(slot).Inc()
}

// SetState records the slot's state.
func (m *Metrics) SetState(slot string, state int) {
	m.slotState.WithLabelValues(slot).Set(float64(state))
}

// EventsDropped adds n dropped events.
func (m *Metrics) EventsDropped(n uint64) {
	m.eventsDropped.Add(float64(n))
}
