package state

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/dashstream/message"
	"github.com/c360/dashstream/metric"
)

// Metrics exposes the tracked model to prometheus. A nil *Metrics disables
// instrumentation; every recording site is nil-guarded.
type Metrics struct {
	workersTotal     prometheus.Gauge
	workersHealthy   prometheus.Gauge
	workersUnhealthy prometheus.Gauge
	totalProcessed   prometheus.Gauge
	totalErrors      prometheus.Gauge
	overallErrorRate prometheus.Gauge
	streamConnected  prometheus.Gauge
}

// WithMetrics registers the tracker's gauges against the given registry
func WithMetrics(registry *metric.Registry) Option {
	return func(t *Tracker) error {
		metrics, err := newMetrics(registry)
		if err != nil {
			return err
		}
		t.metrics = metrics
		return nil
	}
}

func newMetrics(registry *metric.Registry) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashstream",
			Subsystem: "tracker",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		workersTotal:     gauge("workers_total", "Workers currently tracked"),
		workersHealthy:   gauge("workers_healthy", "Workers reporting healthy"),
		workersUnhealthy: gauge("workers_unhealthy", "Workers reporting unhealthy"),
		totalProcessed:   gauge("items_processed_total", "Items processed across the fleet"),
		totalErrors:      gauge("errors_total", "Errors across the fleet"),
		overallErrorRate: gauge("overall_error_rate", "Fleet-wide error rate percentage"),
		streamConnected:  gauge("stream_connected", "Whether the event stream is live (0 or 1)"),
	}

	registrations := []struct {
		name  string
		gauge prometheus.Gauge
	}{
		{"workers_total", m.workersTotal},
		{"workers_healthy", m.workersHealthy},
		{"workers_unhealthy", m.workersUnhealthy},
		{"items_processed_total", m.totalProcessed},
		{"errors_total", m.totalErrors},
		{"overall_error_rate", m.overallErrorRate},
		{"stream_connected", m.streamConnected},
	}
	for _, reg := range registrations {
		if err := registry.RegisterGauge("tracker", reg.name, reg.gauge); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) summaryChanged(s message.Summary) {
	if m == nil {
		return
	}
	m.workersTotal.Set(float64(s.TotalWorkers))
	m.workersHealthy.Set(float64(s.HealthyWorkers))
	m.workersUnhealthy.Set(float64(s.UnhealthyWorkers))
	m.totalProcessed.Set(float64(s.TotalProcessed))
	m.totalErrors.Set(float64(s.TotalErrors))
	m.overallErrorRate.Set(s.OverallErrorRate)
}

func (m *Metrics) connectedChanged(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.streamConnected.Set(1)
	} else {
		m.streamConnected.Set(0)
	}
}
