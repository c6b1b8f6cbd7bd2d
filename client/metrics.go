package client

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/dashstream/metric"
)

// Metrics holds the client's prometheus collectors. A nil *Metrics disables
// instrumentation; every recording site is nil-guarded.
type Metrics struct {
	framesReceived    prometheus.Counter
	framesDropped     prometheus.Counter
	envelopesByKind   *prometheus.CounterVec
	reconnectAttempts prometheus.Counter
	connectionState   prometheus.Gauge
	commandsSent      prometheus.Counter
	commandsFailed    prometheus.Counter
	pendingCommands   prometheus.Gauge
}

func newMetrics(registry *metric.Registry) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "frames_received_total",
			Help:      "Raw frames read from the transport",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because they failed normalization",
		}),
		envelopesByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "envelopes_dispatched_total",
			Help:      "Envelopes dispatched to subscribers, by kind",
		}, []string{"kind"}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts after a failed dial or lost connection",
		}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "connection_state",
			Help:      "Current connection state (0 disconnected, 1 connecting, 2 connected)",
		}),
		commandsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "commands_sent_total",
			Help:      "Commands written to the transport",
		}),
		commandsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "commands_failed_total",
			Help:      "Commands that failed to send or resolve",
		}),
		pendingCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashstream",
			Subsystem: "client",
			Name:      "pending_commands",
			Help:      "Commands awaiting a response",
		}),
	}

	if err := registry.RegisterCounter("client", "frames_received_total", m.framesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("client", "frames_dropped_total", m.framesDropped); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("client", "envelopes_dispatched_total", m.envelopesByKind); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("client", "reconnect_attempts_total", m.reconnectAttempts); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("client", "connection_state", m.connectionState); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("client", "commands_sent_total", m.commandsSent); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("client", "commands_failed_total", m.commandsFailed); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("client", "pending_commands", m.pendingCommands); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) frameReceived() {
	if m != nil {
		m.framesReceived.Inc()
	}
}

func (m *Metrics) frameDropped() {
	if m != nil {
		m.framesDropped.Inc()
	}
}

func (m *Metrics) envelopeDispatched(kind string) {
	if m != nil {
		m.envelopesByKind.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) reconnectAttempt() {
	if m != nil {
		m.reconnectAttempts.Inc()
	}
}

func (m *Metrics) stateChanged(state ConnectionState) {
	if m != nil {
		m.connectionState.Set(float64(state))
	}
}

func (m *Metrics) commandSent() {
	if m != nil {
		m.commandsSent.Inc()
	}
}

func (m *Metrics) commandFailed() {
	if m != nil {
		m.commandsFailed.Inc()
	}
}

func (m *Metrics) pendingDelta(delta float64) {
	if m != nil {
		m.pendingCommands.Add(delta)
	}
}
