// Package dashstream provides the real-time event client core for the
// worker health dashboard.
//
// The module maintains a single long-lived WebSocket connection to the
// dashboard backend, recovers from disconnection with capped exponential
// backoff, normalizes backend-native message kinds into a stable public
// vocabulary, and routes inbound envelopes to subscribed listeners while
// supporting outbound command/response correlation.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            client.Client            │  connect, disconnect,
//	│  (transport + reconnect + commands) │  send, call
//	└─────────────────────────────────────┘
//	           ↓ normalizes via
//	┌─────────────────────────────────────┐
//	│             message                 │  Envelope, kind mapping,
//	│  (normalizer + typed payloads)      │  schema validation
//	└─────────────────────────────────────┘
//	           ↓ dispatches via
//	┌─────────────────────────────────────┐
//	│             router                  │  per-kind listener sets,
//	│   (subscribe → unsubscribe token)   │  isolated dispatch
//	└─────────────────────────────────────┘
//
// Supporting packages:
//   - errors: classified error handling (transient/invalid/fatal)
//   - pkg/backoff: reconnect delay policy
//   - config: YAML + environment configuration
//   - metric: prometheus metric registration
//   - state: client-side aggregate of worker health and resource history
//
// # Usage
//
//	c, err := client.New("ws://dashboard:8090", client.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	unsub := c.Subscribe(message.KindWorkerRegistered, func(env message.Envelope) {
//	    // react to a newly registered worker
//	})
//	defer unsub()
//	c.Connect()
//	defer c.Disconnect()
//
// Lifecycle is always explicit: constructing a Client never opens a
// connection, and importing any package in this module has no side effects.
package dashstream
