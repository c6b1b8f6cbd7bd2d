// Package router dispatches normalized envelopes to per-kind listener sets.
package router

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360/dashstream/message"
)

// Listener receives envelopes for a subscribed kind. Listeners run on the
// dispatch goroutine; long-running work should be handed off.
type Listener func(message.Envelope)

// subscription pairs a listener with its registration identity. The removed
// flag is checked immediately before invocation so an unsubscribe that lands
// between the dispatch snapshot and the callback still suppresses delivery.
type subscription struct {
	id      int64
	fn      Listener
	removed atomic.Bool
}

// Router maintains the subscription table and dispatches envelopes.
//
// Subscribe and the unsubscribe token may be called from any goroutine;
// the table is mutex-guarded. Dispatch is expected to run on a single
// goroutine (the client's read loop), which gives listeners a total order
// over envelopes: registration order within one kind, receipt order across
// dispatch calls.
type Router struct {
	mu     sync.Mutex
	table  map[string][]*subscription
	nextID int64

	logger *slog.Logger

	// Listener panics isolated during dispatch
	panics atomic.Uint64
}

// New creates an empty router. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		table:  make(map[string][]*subscription),
		logger: logger,
	}
}

// Subscribe registers a listener for the given kind and returns a token
// that removes exactly that registration. The token is idempotent: calling
// it more than once has the same effect as calling it once. After the token
// returns, the listener receives zero further dispatches.
func (r *Router) Subscribe(kind string, fn Listener) func() {
	sub := &subscription{fn: fn}

	r.mu.Lock()
	r.nextID++
	sub.id = r.nextID
	r.table[kind] = append(r.table[kind], sub)
	r.mu.Unlock()

	return func() {
		sub.removed.Store(true)
		r.remove(kind, sub.id)
	}
}

func (r *Router) remove(kind string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.table[kind]
	for i, sub := range subs {
		if sub.id == id {
			r.table[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.table[kind]) == 0 {
		delete(r.table, kind)
	}
}

// Dispatch delivers the envelope to every listener registered for its kind,
// in registration order. The listener slice is snapshotted under the lock so
// listeners may subscribe or unsubscribe from within a callback without
// deadlock; the per-subscription removed flag keeps an unsubscribed listener
// from firing even when removal races the snapshot.
//
// A panicking listener is isolated: remaining listeners still run and the
// panic never reaches the transport.
func (r *Router) Dispatch(env message.Envelope) {
	r.mu.Lock()
	subs := r.table[env.Kind]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)
	r.mu.Unlock()

	for _, sub := range snapshot {
		if sub.removed.Load() {
			continue
		}
		r.invoke(sub, env)
	}
}

func (r *Router) invoke(sub *subscription, env message.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics.Add(1)
			r.logger.Error("listener panic isolated",
				"kind", env.Kind,
				"panic", fmt.Sprintf("%v", rec))
		}
	}()
	sub.fn(env)
}

// ListenerCount returns the number of listeners registered for a kind.
func (r *Router) ListenerCount(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.table[kind])
}

// PanicCount returns the number of listener panics isolated so far.
func (r *Router) PanicCount() uint64 {
	return r.panics.Load()
}
