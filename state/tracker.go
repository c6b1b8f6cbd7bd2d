package state

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/c360/dashstream/message"
	"github.com/c360/dashstream/router"
)

// maxResourceHistory bounds the per-resource health sample window
const maxResourceHistory = 100

// Subscriber is the slice of the event client the tracker needs. Satisfied
// by *client.Client and by a bare router in tests.
type Subscriber interface {
	Subscribe(kind string, fn router.Listener) func()
}

// Tracker mirrors the backend's dashboard model from the event stream: the
// worker fleet, its aggregate summary, and a bounded health history per
// shared resource. All methods are safe for concurrent use; mutations only
// happen on the stream goroutine via Attach.
type Tracker struct {
	logger  *slog.Logger
	metrics *Metrics

	mu         sync.RWMutex
	workers    map[string]message.WorkerInfo
	summary    message.Summary
	resources  map[string][]message.ResourceHealth
	connected  bool
	lastUpdate time.Time
}

// Option configures a Tracker during construction
type Option func(*Tracker) error

// New creates an empty tracker
func New(logger *slog.Logger, opts ...Option) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		logger:    logger,
		workers:   make(map[string]message.WorkerInfo),
		resources: make(map[string][]message.ResourceHealth),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Attach subscribes the tracker to every kind it consumes and returns a
// single function that detaches it again
func (t *Tracker) Attach(s Subscriber) func() {
	kinds := []string{
		message.KindInitialData,
		message.KindWorkerRegistered,
		message.KindWorkerDeregistered,
		message.KindWorkerStatusChange,
		message.KindWorkerStatusUpdate,
		message.KindMetricsUpdate,
		message.KindResourcesUpdate,
		message.KindConnectionOpen,
		message.KindConnectionClosed,
		message.KindMaxRetriesReached,
	}

	unsubs := make([]func(), 0, len(kinds))
	for _, kind := range kinds {
		unsubs = append(unsubs, s.Subscribe(kind, t.handle))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (t *Tracker) handle(env message.Envelope) {
	decoded, err := message.DecodePayload(env)
	if err != nil {
		t.logger.Warn("discarding undecodable payload", "kind", env.Kind, "error", err)
		return
	}

	switch payload := decoded.(type) {
	case *message.InitialDataPayload:
		t.applyInitial(payload)
	case *message.WorkerRegisteredPayload:
		t.applyRegistered(payload)
	case *message.WorkerDeregisteredPayload:
		t.applyDeregistered(payload)
	case *message.WorkerStatusChangePayload:
		t.applyStatusChange(payload)
	case *message.WorkerStatusUpdatePayload:
		t.applyStatusUpdate(payload)
	case *message.MetricsUpdatePayload:
		t.applyMetrics(payload)
	case *message.ResourcesUpdatePayload:
		t.applyResources(payload)
	case *message.ConnectionOpenPayload:
		t.setConnected(true)
	case *message.ConnectionClosedPayload:
		t.setConnected(false)
	case *message.MaxRetriesReachedPayload:
		t.setConnected(false)
	}
}

// applyInitial replaces the whole model with the connect-time snapshot.
// A reconnect re-sends initial_data, so stale state from the previous
// connection never survives.
func (t *Tracker) applyInitial(payload *message.InitialDataPayload) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.workers = make(map[string]message.WorkerInfo, len(payload.Workers))
	for _, w := range payload.Workers {
		t.workers[workerKey(w)] = w
	}
	t.summary = payload.Summary

	t.resources = make(map[string][]message.ResourceHealth, len(payload.Resources))
	for name, sample := range payload.Resources {
		t.resources[name] = []message.ResourceHealth{sample}
	}

	t.touchLocked()
	t.logger.Info("initial snapshot applied", "workers", len(t.workers))
}

func (t *Tracker) applyRegistered(payload *message.WorkerRegisteredPayload) {
	if payload.WorkerID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.workers[payload.WorkerID]; !exists {
		t.workers[payload.WorkerID] = message.WorkerInfo{
			Name:     payload.WorkerID,
			Endpoint: payload.Endpoint,
			Status:   "unknown",
		}
	}
	t.recomputeLocked()
	t.touchLocked()
}

func (t *Tracker) applyDeregistered(payload *message.WorkerDeregisteredPayload) {
	if payload.WorkerID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.workers, payload.WorkerID)
	t.recomputeLocked()
	t.touchLocked()
}

func (t *Tracker) applyStatusChange(payload *message.WorkerStatusChangePayload) {
	key := workerKey(payload.Worker)
	if key == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.workers[key] = payload.Worker
	t.recomputeLocked()
	t.touchLocked()
}

func (t *Tracker) applyStatusUpdate(payload *message.WorkerStatusUpdatePayload) {
	if payload.WorkerID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if payload.WorkerData != nil {
		w := *payload.WorkerData
		if w.Name == "" {
			w.Name = payload.WorkerID
		}
		t.workers[payload.WorkerID] = w
	} else {
		w := t.workers[payload.WorkerID]
		if w.Name == "" {
			w.Name = payload.WorkerID
		}
		w.Status = payload.Status
		w.Healthy = payload.Status == "healthy"
		t.workers[payload.WorkerID] = w
	}
	t.recomputeLocked()
	t.touchLocked()
}

// applyMetrics folds a metrics sample into the worker's counters. Unknown
// metric keys are ignored rather than rejected; workers ship more than the
// dashboard renders.
func (t *Tracker) applyMetrics(payload *message.MetricsUpdatePayload) {
	if payload.WorkerID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.workers[payload.WorkerID]
	if w.Name == "" {
		w.Name = payload.WorkerID
	}
	if v, ok := numericMetric(payload.Metrics, "total_processed", "processed"); ok {
		w.TotalProcessed = int64(v)
	}
	if v, ok := numericMetric(payload.Metrics, "error_count", "errors"); ok {
		w.ErrorCount = int64(v)
	}
	if v, ok := numericMetric(payload.Metrics, "error_rate"); ok {
		w.ErrorRate = v
	}
	if v, ok := numericMetric(payload.Metrics, "cpu"); ok {
		w.CPU = v
	}
	if v, ok := numericMetric(payload.Metrics, "memory"); ok {
		w.Memory = v
	}
	t.workers[payload.WorkerID] = w

	t.recomputeLocked()
	t.touchLocked()
}

func (t *Tracker) applyResources(payload *message.ResourcesUpdatePayload) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for name, sample := range payload.Resources {
		history := append(t.resources[name], sample)
		if len(history) > maxResourceHistory {
			history = history[len(history)-maxResourceHistory:]
		}
		t.resources[name] = history
	}
	t.touchLocked()
}

func (t *Tracker) setConnected(connected bool) {
	t.mu.Lock()
	t.connected = connected
	t.mu.Unlock()
	t.metrics.connectedChanged(connected)
}

// recomputeLocked rebuilds the fleet summary from the worker map; t.mu held
func (t *Tracker) recomputeLocked() {
	var s message.Summary
	s.TotalWorkers = len(t.workers)
	for _, w := range t.workers {
		if w.Healthy {
			s.HealthyWorkers++
		} else {
			s.UnhealthyWorkers++
		}
		s.TotalProcessed += w.TotalProcessed
		s.TotalErrors += w.ErrorCount
	}
	if s.TotalProcessed > 0 {
		rate := float64(s.TotalErrors) / float64(s.TotalProcessed) * 100
		s.OverallErrorRate = math.Round(rate*100) / 100
	}
	t.summary = s
	t.metrics.summaryChanged(s)
}

func (t *Tracker) touchLocked() {
	t.lastUpdate = time.Now().UTC()
}

// Snapshot is a consistent copy of the tracked model
type Snapshot struct {
	Workers    []message.WorkerInfo
	Summary    message.Summary
	Resources  map[string][]message.ResourceHealth
	Connected  bool
	LastUpdate time.Time
}

// Snapshot returns a deep copy of the current model. Workers are sorted by
// name so renderers get a stable order.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	workers := make([]message.WorkerInfo, 0, len(t.workers))
	for _, w := range t.workers {
		workers = append(workers, w)
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })

	resources := make(map[string][]message.ResourceHealth, len(t.resources))
	for name, history := range t.resources {
		resources[name] = append([]message.ResourceHealth(nil), history...)
	}

	return Snapshot{
		Workers:    workers,
		Summary:    t.summary,
		Resources:  resources,
		Connected:  t.connected,
		LastUpdate: t.lastUpdate,
	}
}

// Worker returns one worker by key
func (t *Tracker) Worker(key string) (message.WorkerInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.workers[key]
	return w, ok
}

// Connected reports whether the stream currently has a live connection
func (t *Tracker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func workerKey(w message.WorkerInfo) string {
	if w.Name != "" {
		return w.Name
	}
	return w.Endpoint
}

// numericMetric pulls the first present key out of a metrics map, accepting
// any JSON number representation
func numericMetric(metrics map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := metrics[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}
