package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/dashstream/errors"
)

func newTestCounter(name string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dashstream",
		Subsystem: "test",
		Name:      name,
		Help:      "test counter",
	})
}

func TestRegistry_RegisterCounter(t *testing.T) {
	r := NewRegistry()

	err := r.RegisterCounter("client", "frames_total", newTestCounter("frames_total"))
	assert.NoError(t, err)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterCounter("client", "frames_total", newTestCounter("frames_total")))

	err := r.RegisterCounter("client", "frames_total", newTestCounter("frames_total"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistry_SameNameDifferentComponent(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterCounter("client", "errors_a", newTestCounter("errors_a")))

	// Same registry key namespace differs, but the prometheus collector
	// itself must still be unique
	err := r.RegisterCounter("tracker", "errors_b", newTestCounter("errors_b"))
	assert.NoError(t, err)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterCounter("client", "frames_total", newTestCounter("frames_total")))

	assert.True(t, r.Unregister("client", "frames_total"))
	assert.False(t, r.Unregister("client", "frames_total"))

	// Re-registration after unregister succeeds
	assert.NoError(t, r.RegisterCounter("client", "frames_total", newTestCounter("frames_total")))
}

func TestRegistry_RegisterGaugeAndVecs(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashstream", Subsystem: "test", Name: "state", Help: "h",
	})
	assert.NoError(t, r.RegisterGauge("client", "state", gauge))

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashstream", Subsystem: "test", Name: "by_kind_total", Help: "h",
	}, []string{"kind"})
	assert.NoError(t, r.RegisterCounterVec("client", "by_kind", counterVec))

	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dashstream", Subsystem: "test", Name: "by_worker", Help: "h",
	}, []string{"worker"})
	assert.NoError(t, r.RegisterGaugeVec("tracker", "by_worker", gaugeVec))
}

func TestServer_StartStop(t *testing.T) {
	r := NewRegistry()
	srv := NewServer("127.0.0.1:0", "", r)

	require.NoError(t, srv.Start())

	// Double start is rejected
	err := srv.Start()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	assert.NoError(t, srv.Stop(time.Second))
	// Stop is idempotent
	assert.NoError(t, srv.Stop(time.Second))
}
